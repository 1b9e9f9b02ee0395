package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/knoxsec/knox/internal/ignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestCandidates_MaxDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x")
	writeFile(t, dir, "sub/b.py", "x")
	writeFile(t, dir, "sub/deep/c.py", "x")

	tests := []struct {
		depth int
		want  []string
	}{
		{-1, []string{"a.py", "sub/b.py", "sub/deep/c.py"}},
		{0, []string{}},
		{1, []string{"a.py"}},
		{2, []string{"a.py", "sub/b.py"}},
	}
	for _, tt := range tests {
		cfg := Config{Root: dir, MaxDepth: tt.depth}
		got, err := Candidates(context.Background(), cfg, DefaultExtensions)
		require.NoError(t, err)
		assert.Equal(t, tt.want, relAll(t, dir, got), "depth %d", tt.depth)
	}
}

func TestCandidates_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x")
	writeFile(t, dir, "README.md", "x")
	writeFile(t, dir, ".py", "x")
	writeFile(t, dir, "UPPER.PY", "x")
	writeFile(t, dir, "noext", "x")

	got, err := Candidates(context.Background(), DefaultConfig(dir), DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, relAll(t, dir, got))

	got, err = Candidates(context.Background(), DefaultConfig(dir), []string{".md", ".PY"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"README.md", "UPPER.PY"}, relAll(t, dir, got))
}

func TestCandidates_Globs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.go", "x")
	writeFile(t, dir, "src/a_test.go", "x")
	writeFile(t, dir, "web/b.js", "x")

	cfg := DefaultConfig(dir)
	cfg.IncludeGlobs = "src/**"
	got, err := Candidates(context.Background(), cfg, DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go", "src/a_test.go"}, relAll(t, dir, got))

	cfg = DefaultConfig(dir)
	cfg.ExcludeGlobs = "**/*_test.go, web/**"
	got, err = Candidates(context.Background(), cfg, DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go"}, relAll(t, dir, got))
}

func TestCandidates_DefaultExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "x")
	writeFile(t, dir, "app.min.js", "x")
	writeFile(t, dir, "node_modules/lib/index.js", "x")

	cfg := DefaultConfig(dir)
	got, err := Candidates(context.Background(), cfg, DefaultExtensions)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	cfg.DefaultExcludes = true
	got, err = Candidates(context.Background(), cfg, DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, relAll(t, dir, got))
}

func TestCandidates_IgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "x")
	writeFile(t, dir, "fixtures/leak.py", "x")
	writeFile(t, dir, "conf/local.go", "x")
	writeFile(t, dir, "conf/prod.go", "x")

	cfg := DefaultConfig(dir)
	cfg.Ignore = ignore.Parse([]byte("fixtures/\nlocal.go\n"))
	got, err := Candidates(context.Background(), cfg, DefaultExtensions)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.py", "conf/prod.go"}, relAll(t, dir, got))
}

func TestCandidates_FileRoot(t *testing.T) {
	dir := t.TempDir()
	py := writeFile(t, dir, "one.py", "x")
	md := writeFile(t, dir, "one.md", "x")

	got, err := Candidates(context.Background(), DefaultConfig(py), DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{py}, got)

	got, err = Candidates(context.Background(), DefaultConfig(md), DefaultExtensions)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCandidates_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Candidates(ctx, DefaultConfig(dir), DefaultExtensions)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a.py":       ".py",
		"a.test.ts":  ".ts",
		".py":        "",
		".env.py":    ".py",
		"Makefile":   "",
		"trailing.":  ".",
		"archive.GO": ".GO",
	}
	for in, want := range tests {
		assert.Equal(t, want, extension(in), in)
	}
}

func TestPathDepth(t *testing.T) {
	assert.Equal(t, 0, pathDepth("."))
	assert.Equal(t, 1, pathDepth("a.py"))
	assert.Equal(t, 3, pathDepth(filepath.Join("a", "b", "c.py")))
}
