package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/knoxsec/knox/internal/ignore"
	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
)

// Config controls directory traversal and dispatch.
type Config struct {
	Root     string
	MaxDepth int // negative means unlimited
	Parallel bool
	Threads  int // 0 = GOMAXPROCS

	IncludeGlobs    string
	ExcludeGlobs    string
	DefaultExcludes bool
	// Ignore skips root-relative paths it matches. Nil ignores nothing.
	Ignore *ignore.Matcher

	// Progress is called after each file with the number of files handled
	// so far and the candidate total. Calls are serialized.
	Progress func(done, total int)
}

// DefaultConfig returns the configuration of a plain directory scan: no
// depth limit, parallel dispatch.
func DefaultConfig(root string) Config {
	return Config{Root: root, MaxDepth: -1, Parallel: true}
}

// Result contains per-file results and basic scan statistics.
type Result struct {
	Results      []types.ScanResult
	Candidates   int
	FilesScanned int
	FilesFailed  int
	Parallel     bool
	Duration     time.Duration
}

// ScanDirectory scans every candidate file under cfg.Root. Files that fail
// to scan are left out; the call itself only fails when the root does not
// exist or ctx is cancelled, and then returns no results.
func (s *Scanner) ScanDirectory(ctx context.Context, cfg Config) ([]types.ScanResult, error) {
	res, err := s.ScanDirectoryWithStats(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// ScanDirectoryWithStats is ScanDirectory with timing and counts.
func (s *Scanner) ScanDirectoryWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	started := time.Now()

	if _, err := os.Stat(cfg.Root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrNotFound, cfg.Root)
		}
		return result, fmt.Errorf("%w: stat %s: %w", ErrIO, cfg.Root, err)
	}

	files, err := Candidates(ctx, cfg, s.extensions)
	if err != nil {
		return result, err
	}
	result.Candidates = len(files)

	var (
		stats dispatchStats
		set   *matcher.Set
	)
	if cfg.Parallel && len(files) > 1 {
		set = s.compiled()
	}
	if set != nil {
		result.Parallel = true
		result.Results, stats, err = scanParallel(ctx, s, set, files, cfg.Threads, cfg.Progress)
	} else {
		result.Results, stats, err = scanSequential(ctx, s, files, cfg.Progress)
	}
	if err != nil {
		return Result{}, err
	}
	result.FilesScanned = stats.scanned
	result.FilesFailed = stats.failed
	result.Duration = time.Since(started)

	logrus.WithFields(logrus.Fields{
		"root":       cfg.Root,
		"candidates": result.Candidates,
		"scanned":    result.FilesScanned,
		"failed":     result.FilesFailed,
		"parallel":   result.Parallel,
		"duration":   result.Duration,
	}).Info("directory scan finished")
	return result, nil
}

// compiled returns a matcher that is safe to share between workers, or nil
// when the scanner's matcher cannot be compiled into one.
func (s *Scanner) compiled() *matcher.Set {
	switch m := s.matcher.(type) {
	case *matcher.Set:
		return m
	case *matcher.Matcher:
		return m.Compile()
	}
	return nil
}

// Findings flattens results into report rows ordered by path, line and
// column. Pattern descriptions are looked up in ps.
func Findings(results []types.ScanResult, ps []types.Pattern) []types.Finding {
	desc := make(map[string]string, len(ps))
	for _, p := range ps {
		desc[p.Name] = p.Description
	}
	var out []types.Finding
	for _, r := range results {
		for _, m := range r.Matches {
			out = append(out, types.Finding{
				Path:        r.FilePath,
				Line:        m.LineNumber,
				Column:      m.Column,
				Pattern:     m.PatternName,
				Severity:    m.Severity,
				Category:    m.Category,
				Match:       m.MatchedText,
				Description: desc[m.PatternName],
				Fingerprint: Fingerprint(r.FilePath, m.PatternName, m.MatchedText),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// Fingerprint identifies a finding independently of its line so that it
// survives unrelated edits to the file.
func Fingerprint(path, pattern, match string) string {
	return fastHash([]byte(filepath.ToSlash(path) + "|" + pattern + "|" + match))
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// allowedByGlobs returns true if the given path is allowed by the include and
// exclude globs. Includes, if any, act as a positive filter; excludes are
// subtracted last.
func allowedByGlobs(relPath string, includes, excludes []string) bool {
	rp := filepath.ToSlash(relPath)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
