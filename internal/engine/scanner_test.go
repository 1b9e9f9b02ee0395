package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewScanner_Defaults(t *testing.T) {
	s := NewScanner(0)
	assert.Equal(t, int64(10*1024*1024), s.MaxFileSize())
	assert.Equal(t, DefaultExtensions, s.Extensions())
	assert.Len(t, s.Extensions(), 13)
	assert.Equal(t, 10, s.Matcher().PatternCount())
	assert.Equal(t, int64(3*1024*1024), NewScanner(3).MaxFileSize())
}

func TestAddExtension_Dedup(t *testing.T) {
	s := NewScanner(0)
	s.AddExtension(".kt")
	s.AddExtension(".kt")
	s.AddExtension(".py")
	exts := s.Extensions()
	assert.Len(t, exts, 14)
	assert.Equal(t, ".kt", exts[13])

	s.SetExtensions([]string{".md", ".md", ".txt"})
	assert.Equal(t, []string{".md", ".txt"}, s.Extensions())
}

func TestScanFile_Matches(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.py", "API_KEY = \"sk-1234567890abcdefghij\"\npassword = \"admin123\"\nquery(\"SELECT * FROM users WHERE id = \" + user_id)\n")

	res, err := NewScanner(0).ScanFile(p)
	require.NoError(t, err)
	assert.Equal(t, p, res.FilePath)
	assert.GreaterOrEqual(t, len(res.Matches), 2)
	assert.Equal(t, "hardcoded_api_key", res.Matches[0].PatternName)
	assert.Equal(t, 1, res.Matches[0].LineNumber)
	assert.Equal(t, "hardcoded_password", res.Matches[1].PatternName)
	assert.Equal(t, 2, res.Matches[1].LineNumber)
	info, _ := os.Stat(p)
	assert.Equal(t, info.Size(), res.FileSize)
	assert.GreaterOrEqual(t, res.ScanTimeMs, int64(0))
}

func TestScanFile_IgnoresExtensionAllowList(t *testing.T) {
	p := writeFile(t, t.TempDir(), "notes.txt", "hashlib.md5(x)\n")
	res, err := NewScanner(0).ScanFile(p)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "weak_crypto_md5", res.Matches[0].PatternName)
}

func TestScanFile_Oversized(t *testing.T) {
	content := "md5(x)\n" + string(bytes.Repeat([]byte("a"), 1024*1024))
	p := writeFile(t, t.TempDir(), "big.py", content)

	res, err := NewScanner(1).ScanFile(p)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Equal(t, int64(0), res.ScanTimeMs)
	assert.Equal(t, int64(len(content)), res.FileSize)
}

func TestScanFile_Empty(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty.py", "")
	res, err := NewScanner(0).ScanFile(p)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, int64(0), res.FileSize)
}

func TestScanFile_NotFound(t *testing.T) {
	_, err := NewScanner(0).ScanFile(filepath.Join(t.TempDir(), "missing.py"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestScanFile_IOErrors(t *testing.T) {
	dir := t.TempDir()
	latin1 := writeFile(t, dir, "latin1.py", "password = \"caf\xe9caf\xe9\"\n")

	for _, noMmap := range []bool{false, true} {
		s := NewScanner(0)
		if noMmap {
			s.DisableMmap()
		}
		_, err := s.ScanFile(latin1)
		assert.ErrorIs(t, err, ErrIO)
		assert.ErrorIs(t, err, errNotUTF8)
	}
}

func TestScanFile_MmapAndBufferedAgree(t *testing.T) {
	p := writeFile(t, t.TempDir(), "mix.js", "el.innerHTML = x\r\nconst verify = false\nexec(cmd)")
	mapped, err := NewScanner(0).ScanFile(p)
	require.NoError(t, err)

	s := NewScanner(0)
	s.DisableMmap()
	buffered, err := s.ScanFile(p)
	require.NoError(t, err)

	assert.Equal(t, mapped.Matches, buffered.Matches)
	assert.Len(t, mapped.Matches, 3)
}

func TestScanFile_WithCompiledSet(t *testing.T) {
	p := writeFile(t, t.TempDir(), "a.go", "h := sha1(data)\n")
	set := matcher.NewSet([]types.Pattern{{
		Name: "weak_crypto_sha1", Pattern: `(?i)(sha1|hashlib\.sha1)\s*\(`, Severity: types.SevMed, Category: "crypto",
	}})
	res, err := NewScannerWithMatcher(set, 0).ScanFile(p)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 5, res.Matches[0].Column)
	assert.Equal(t, "sha1(", res.Matches[0].MatchedText)
}
