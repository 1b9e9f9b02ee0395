package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/types"
)

// DefaultMaxFileSizeMB is the size limit used when none is given.
const DefaultMaxFileSizeMB = 10

// DefaultExtensions is the initial extension allow-list for directory scans.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".rs", ".go",
	".java", ".php", ".rb", ".c", ".cpp", ".cs",
}

// Scanner scans single files against a pattern matcher. The extension
// allow-list only applies to directory scans.
//
// A Scanner built on a lazy *matcher.Matcher must not be shared between
// goroutines; ScanDirectory takes care of that by compiling a shared Set.
type Scanner struct {
	matcher     matcher.LineMatcher
	extensions  []string
	maxFileSize int64
	noMmap      bool
}

// NewScanner returns a Scanner with the built-in patterns, the default
// extension allow-list and a size limit of maxFileSizeMB megabytes
// (DefaultMaxFileSizeMB when <= 0).
func NewScanner(maxFileSizeMB int64) *Scanner {
	return NewScannerWithMatcher(matcher.New(), maxFileSizeMB)
}

// NewScannerWithMatcher is NewScanner with a caller-supplied matcher.
func NewScannerWithMatcher(m matcher.LineMatcher, maxFileSizeMB int64) *Scanner {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = DefaultMaxFileSizeMB
	}
	return &Scanner{
		matcher:     m,
		extensions:  slices.Clone(DefaultExtensions),
		maxFileSize: maxFileSizeMB * 1024 * 1024,
	}
}

// AddExtension appends ext (e.g. ".kt") unless already present. Comparison
// is exact and case-sensitive.
func (s *Scanner) AddExtension(ext string) {
	if ext == "" || slices.Contains(s.extensions, ext) {
		return
	}
	s.extensions = append(s.extensions, ext)
}

// SetExtensions replaces the allow-list, dropping duplicates.
func (s *Scanner) SetExtensions(exts []string) {
	s.extensions = s.extensions[:0]
	for _, e := range exts {
		s.AddExtension(e)
	}
}

// Extensions returns a copy of the allow-list in insertion order.
func (s *Scanner) Extensions() []string { return slices.Clone(s.extensions) }

// MaxFileSize returns the size limit in bytes.
func (s *Scanner) MaxFileSize() int64 { return s.maxFileSize }

// Matcher returns the matcher used by the scanner.
func (s *Scanner) Matcher() matcher.LineMatcher { return s.matcher }

// DisableMmap forces plain reads for every file.
func (s *Scanner) DisableMmap() { s.noMmap = true }

// ScanFile scans one file. A file larger than the limit is reported with no
// matches and is never read. A missing path yields ErrNotFound; any other
// failure to stat or read yields ErrIO.
func (s *Scanner) ScanFile(path string) (types.ScanResult, error) {
	started := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.ScanResult{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return types.ScanResult{}, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}

	res := types.ScanResult{
		FilePath: path,
		Matches:  []types.Match{},
		FileSize: info.Size(),
	}
	if res.FileSize > s.maxFileSize {
		return res, nil
	}
	if res.FileSize > 0 {
		data, release, err := loadContent(path, !s.noMmap)
		if err != nil {
			return types.ScanResult{}, err
		}
		if ms := s.matcher.MatchBytes(data); ms != nil {
			res.Matches = ms
		}
		release()
	}
	res.ScanTimeMs = time.Since(started).Milliseconds()
	return res, nil
}

// forTask returns a scanner for one dispatched file. It shares the
// read-only allow-list and the given matcher.
func (s *Scanner) forTask(m matcher.LineMatcher) *Scanner {
	return &Scanner{
		matcher:     m,
		extensions:  s.extensions,
		maxFileSize: s.maxFileSize,
		noMmap:      s.noMmap,
	}
}
