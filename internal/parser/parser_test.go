package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
)

func defaultOpts() ParseOptions {
	return ParseOptions{MaxFileSizeBytes: 10 * 1024 * 1024, Timeout: 5 * time.Second}
}

func TestParseFile_Go(t *testing.T) {
	p := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"), 0o644))

	result, err := p.ParseFile(context.Background(), path, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, model.LanguageGo, result.Language)
	assert.False(t, result.HasErrors)
	assert.NotEmpty(t, result.Source)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	p := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.unknownlang")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	_, err := p.ParseFile(context.Background(), path, defaultOpts())
	require.Error(t, err)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindUnsupportedLanguage))
}

func TestParseFile_NotFound(t *testing.T) {
	p := New()
	_, err := p.ParseFile(context.Background(), "/nonexistent/path/sample.go", defaultOpts())
	require.Error(t, err)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindNotFound))
}

func TestParseFile_TooLarge(t *testing.T) {
	p := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "big.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	opts := defaultOpts()
	opts.MaxFileSizeBytes = 1
	_, err := p.ParseFile(context.Background(), path, opts)
	require.Error(t, err)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindResourceExceeded))
}

func TestParseFile_SyntaxErrorProducesPartialTree(t *testing.T) {
	p := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.py")
	require.NoError(t, os.WriteFile(path, []byte("def f(:\n    pass\n"), 0o644))

	result, err := p.ParseFile(context.Background(), path, defaultOpts())
	require.NoError(t, err)
	assert.True(t, result.HasErrors)
	assert.NotEmpty(t, result.ErrorNodes)
}

func TestParseFile_Ruby(t *testing.T) {
	p := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.rb")
	require.NoError(t, os.WriteFile(path, []byte("class Greeter\n  def hello(name)\n    puts \"hi #{name}\"\n  end\nend\n"), 0o644))

	result, err := p.ParseFile(context.Background(), path, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, model.LanguageRuby, result.Language)
	assert.False(t, result.HasErrors)
}

func TestParseFile_AllSupportedExtensionsHaveGrammars(t *testing.T) {
	p := New()
	for _, ext := range []string{".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".rs", ".cpp", ".cs", ".php", ".rb"} {
		assert.True(t, p.ensureInitialized(ext), "extension %s should initialize a grammar", ext)
		assert.NotNil(t, p.parsers[ext], "extension %s should have a parser", ext)
	}
}
