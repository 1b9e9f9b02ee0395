package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectory_Smoke(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("yaml.load(stream)\n"), 0o644))

	results, err := ScanDirectory(dir, DefaultScanOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, SevHigh, results[0].Matches[0].Severity)

	fs := Findings(results)
	require.Len(t, fs, 1)
	assert.Equal(t, "Insecure deserialization detected", fs[0].Description)
	assert.Len(t, PatternIDs(), 10)
}

func TestScanner_ScanDirectoryWithExtraExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.kt"), []byte("val h = md5(x)\n"), 0o644))

	results, err := ScanDirectory(dir, DefaultScanOptions())
	require.NoError(t, err)
	assert.Empty(t, results)

	sc := NewScanner(0)
	sc.AddExtension(".kt")
	cfg := DefaultConfig(dir)
	cfg.Parallel = false
	results, err = sc.ScanDirectory(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "weak_crypto_md5", results[0].Matches[0].PatternName)

	stats, err := sc.ScanDirectoryWithStats(context.Background(), DefaultConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)
}

func TestScanFile_Errors(t *testing.T) {
	_, err := ScanFile(filepath.Join(t.TempDir(), "missing.py"))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ScanDirectory(filepath.Join(t.TempDir(), "missing"), DefaultScanOptions())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestScanner_Extensions(t *testing.T) {
	s := NewScanner(0)
	s.AddExtension(".kt")
	assert.Contains(t, s.Extensions(), ".kt")
	assert.Equal(t, int64(10*1024*1024), s.MaxFileSize())
}

func TestResultsJSON(t *testing.T) {
	in := []ScanResult{{
		FilePath:   "a.py",
		Matches:    []Match{{LineNumber: 2, Column: 0, PatternName: "weak_crypto_md5", Severity: SevMed, MatchedText: "md5(", Category: "crypto"}},
		ScanTimeMs: 1,
		FileSize:   12,
	}}
	var buf bytes.Buffer
	require.NoError(t, MarshalResults(&buf, in))
	assert.Contains(t, buf.String(), `"pattern_name": "weak_crypto_md5"`)
	out, err := UnmarshalResults(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	buf.Reset()
	require.NoError(t, MarshalResults(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
