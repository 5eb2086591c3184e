package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/basinlabs/codescan/internal/cache"
	"github.com/basinlabs/codescan/internal/config"
	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
	"github.com/basinlabs/codescan/internal/parser"
	"github.com/basinlabs/codescan/internal/patterns"
	"github.com/basinlabs/codescan/internal/persistence"
)

type fixedScanner struct {
	root  string
	files []string
	err   error
}

func (s fixedScanner) Files(ctx context.Context, codebaseID string) (string, []string, error) {
	return s.root, s.files, s.err
}

type noopLinter struct{}

func (noopLinter) Lint(ctx context.Context, path string, lang model.Language) ([]model.LinterIssue, error) {
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestOrchestrator(t *testing.T, scanner Scanner) *Orchestrator {
	t.Helper()
	p := parser.New()
	reg := patterns.NewRegistry(nil, patterns.DefaultDetectors()...)
	store, err := persistence.NewStore(t.TempDir())
	require.NoError(t, err)
	c, err := cache.New(context.Background(), nil, cache.Options{MaxBytes: 1 << 20, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return New(config.Default(), nil, p, reg, c, store, scanner, noopLinter{})
}

func TestAnalyzeFile_PythonSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greet.py", "def greet(name):\n    \"\"\"Say hello.\"\"\"\n    return 'hi ' + name\n")

	o := newTestOrchestrator(t, nil)
	fa, err := o.AnalyzeFile(context.Background(), path, false)
	require.NoError(t, err)

	assert.Equal(t, model.LanguagePython, fa.Language)
	require.Len(t, fa.Symbols.Functions, 1)
	assert.Equal(t, "greet", fa.Symbols.Functions[0].Name)
	assert.NotEmpty(t, fa.FileHash)
}

func TestAnalyzeFile_UnsupportedExtensionFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "hello")

	o := newTestOrchestrator(t, nil)
	_, err := o.AnalyzeFile(context.Background(), path, false)
	assert.Error(t, err)
}

func TestAnalyzeFile_CachesSecondCallWithoutReparsing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.py", "def f():\n    pass\n")

	o := newTestOrchestrator(t, nil)
	ctx := context.Background()
	first, err := o.AnalyzeFile(ctx, path, false)
	require.NoError(t, err)

	second, err := o.AnalyzeFile(ctx, path, false)
	require.NoError(t, err)
	assert.Equal(t, first.FileHash, second.FileHash)
	assert.Equal(t, int64(1), o.cache.Stats().Tier1Hits, "second call should be served from the cache")
}

func TestAnalyzeCodebase_NoScannerFailsWithNotScanned(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	_, err := o.AnalyzeCodebase(context.Background(), "proj1", true, true)
	assert.Error(t, err)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindNotScanned))
}

func TestAnalyzeCodebase_HappyPathConcurrentAndDeterministic(t *testing.T) {
	// Registered before newTestOrchestrator so it runs after the cache's
	// cleanup has closed its SQLite connection.
	t.Cleanup(func() { goleak.VerifyNone(t) })

	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "def a():\n    \"\"\"A.\"\"\"\n    return 1\n")
	b := writeFile(t, dir, "b.py", "from .a import a\n\ndef b():\n    \"\"\"B.\"\"\"\n    return a()\n")

	scanner := fixedScanner{root: dir, files: []string{a, b}}
	o := newTestOrchestrator(t, scanner)

	result, err := o.AnalyzeCodebase(context.Background(), "proj1", true, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metrics.TotalFiles)
	assert.Len(t, result.FileAnalyses, 2)
	assert.NotEmpty(t, result.DependencyGraph.Edges)
}

func TestAnalyzeCodebase_IncrementalReuseSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "def a():\n    return 1\n")

	scanner := fixedScanner{root: dir, files: []string{a}}
	o := newTestOrchestrator(t, scanner)
	ctx := context.Background()

	first, err := o.AnalyzeCodebase(ctx, "proj1", true, true)
	require.NoError(t, err)

	second, err := o.AnalyzeCodebase(ctx, "proj1", true, true)
	require.NoError(t, err)

	assert.Equal(t, first.FileAnalyses[a].FileHash, second.FileAnalyses[a].FileHash)
	assert.True(t, first.FileAnalyses[a].AnalyzedAt.Equal(second.FileAnalyses[a].AnalyzedAt), "unchanged file should reuse its persisted analysis")
}

func TestRankByTeachingValue_BreaksTiesDeterministically(t *testing.T) {
	fileAnalyses := map[string]*model.FileAnalysis{
		"b.py": {TeachingValue: model.TeachingValueScore{Total: 0.5}},
		"a.py": {TeachingValue: model.TeachingValueScore{Total: 0.5}},
		"c.py": {TeachingValue: model.TeachingValueScore{Total: 0.9}},
	}
	ranked := rankByTeachingValue(fileAnalyses, 10)
	assert.Equal(t, []string{"c.py", "a.py", "b.py"}, ranked)
}
