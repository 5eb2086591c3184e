package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(10), cfg.MaxFileSizeMB)
	assert.Equal(t, 5, cfg.ParseTimeoutS)
	assert.Equal(t, 10, cfg.MaxParallelFiles)
	assert.Contains(t, cfg.SupportedLanguages, "ruby")
	assert.Equal(t, 0.5, cfg.MinDocumentationCoverage)
	assert.Equal(t, ".analysis/", cfg.PersistenceRoot)
	assert.False(t, cfg.EnableLinters)
	assert.Equal(t, 1.0, cfg.TeachingValueWeights.Documentation+
		cfg.TeachingValueWeights.Complexity+
		cfg.TeachingValueWeights.Pattern+
		cfg.TeachingValueWeights.Structure)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesFromKDL(t *testing.T) {
	dir := t.TempDir()
	content := `
max_file_size_mb 25
parse_timeout_s 8
max_parallel_files 4
enable_linters true
persistence_root ".cache-analysis/"
teaching_value_weights {
    documentation 0.4
    complexity 0.2
    pattern 0.2
    structure 0.2
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescan.kdl"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cfg.MaxFileSizeMB)
	assert.Equal(t, 8, cfg.ParseTimeoutS)
	assert.Equal(t, 4, cfg.MaxParallelFiles)
	assert.True(t, cfg.EnableLinters)
	assert.Equal(t, ".cache-analysis/", cfg.PersistenceRoot)
	assert.Equal(t, 0.4, cfg.TeachingValueWeights.Documentation)
}

func TestLoad_OverridesFromTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
max_file_size_mb = 25
parse_timeout_s = 8
enable_linters = true
supported_languages = ["python", "go"]

[teaching_value_weights]
documentation = 0.4
complexity = 0.2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescan.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cfg.MaxFileSizeMB)
	assert.Equal(t, 8, cfg.ParseTimeoutS)
	assert.True(t, cfg.EnableLinters)
	assert.Equal(t, []string{"python", "go"}, cfg.SupportedLanguages)
	assert.Equal(t, 0.4, cfg.TeachingValueWeights.Documentation)
	assert.Equal(t, 0.2, cfg.TeachingValueWeights.Complexity)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 0.25, cfg.TeachingValueWeights.Pattern)
	assert.Equal(t, 10, cfg.MaxParallelFiles)
}

func TestLoad_KDLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescan.kdl"), []byte("max_parallel_files 4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescan.toml"), []byte("max_parallel_files = 7\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxParallelFiles)
}

func TestParseTimeoutAndCacheTTLDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(5), cfg.ParseTimeout().Nanoseconds()/1e9)
	assert.Equal(t, int64(3600), cfg.CacheTTL().Nanoseconds()/1e9)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSizeBytes())
}
