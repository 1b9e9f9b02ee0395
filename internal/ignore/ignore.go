// Package ignore reads .knoxignore files: gitignore-syntax lists of paths a
// directory scan skips.
package ignore

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the ignore file looked up at the scan root.
const FileName = ".knoxignore"

// Matcher reports whether root-relative paths are ignored.
type Matcher struct {
	m gitignore.Matcher
	n int
}

// Load parses the ignore file at path.
func Load(path string) (*Matcher, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b), nil
}

// Parse builds a Matcher from gitignore-syntax content. Blank lines and
// comments are skipped.
func Parse(b []byte) *Matcher {
	var ps []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return &Matcher{m: gitignore.NewMatcher(ps), n: len(ps)}
}

// Len returns the number of patterns.
func (m *Matcher) Len() int { return m.n }

// Match reports whether the file at rel is ignored.
func (m *Matcher) Match(rel string) bool {
	return m.match(rel, false)
}

// MatchDir reports whether the directory at rel is ignored.
func (m *Matcher) MatchDir(rel string) bool {
	return m.match(rel, true)
}

func (m *Matcher) match(rel string, isDir bool) bool {
	if m == nil || m.n == 0 {
		return false
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == "" {
		return false
	}
	return m.m.Match(strings.Split(rel, "/"), isDir)
}

// Append ensures pattern is present in the ignore file at path. It creates
// the file if missing. Idempotent.
func Append(path, pattern string) error {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	existing := map[string]bool{}
	if b, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			existing[strings.TrimSpace(line)] = true
		}
		if len(b) > 0 && b[len(b)-1] != '\n' {
			pattern = "\n" + pattern
		}
	}
	if existing[strings.TrimSpace(pattern)] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(pattern + "\n")
	return err
}
