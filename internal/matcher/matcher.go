package matcher

import (
	"bytes"
	"errors"
	"strings"

	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
)

// ErrInvalidPattern wraps regex compilation failures.
var ErrInvalidPattern = errors.New("invalid pattern")

// LineMatcher is the matching surface shared by Matcher and Set.
type LineMatcher interface {
	MatchLine(line string, lineNumber int) []types.Match
	MatchContent(content string) []types.Match
	MatchBytes(content []byte) []types.Match
	PatternCount() int
}

var (
	_ LineMatcher = (*Matcher)(nil)
	_ LineMatcher = (*Set)(nil)
)

// Matcher holds an append-only pattern registry and compiles each pattern on
// first use. It is not safe for concurrent use.
type Matcher struct {
	patterns []types.Pattern
	cache    *regexCache
}

// New returns a Matcher preloaded with the built-in patterns.
func New() *Matcher {
	return NewWithPatterns(patterns.Defaults()...)
}

// NewWithPatterns returns a Matcher whose registry holds exactly ps.
func NewWithPatterns(ps ...types.Pattern) *Matcher {
	m := &Matcher{cache: newRegexCache()}
	for _, p := range ps {
		m.AddPattern(p)
	}
	return m
}

// AddPattern appends p to the registry. Compilation is deferred to the first
// match attempt; an invalid expression is accepted here and simply never
// matches.
func (m *Matcher) AddPattern(p types.Pattern) {
	m.patterns = append(m.patterns, p)
}

// PatternCount returns the number of registered patterns.
func (m *Matcher) PatternCount() int { return len(m.patterns) }

// Patterns returns a copy of the registry in registration order.
func (m *Matcher) Patterns() []types.Pattern {
	out := make([]types.Pattern, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// MatchLine evaluates every pattern against one line, in registration order.
func (m *Matcher) MatchLine(line string, lineNumber int) []types.Match {
	return m.matchLine([]byte(line), lineNumber, nil)
}

// MatchContent splits content into lines and matches each of them. Matches
// are ordered by line, then by registration order.
func (m *Matcher) MatchContent(content string) []types.Match {
	return m.MatchBytes([]byte(content))
}

// MatchBytes is MatchContent over a byte slice. The returned matches do not
// reference content.
func (m *Matcher) MatchBytes(content []byte) []types.Match {
	var out []types.Match
	forEachLine(content, func(n int, line []byte) {
		out = m.matchLine(line, n, out)
	})
	return out
}

func (m *Matcher) matchLine(line []byte, n int, out []types.Match) []types.Match {
	var lower []byte
	for i := range m.patterns {
		p := &m.patterns[i]
		if len(p.Keywords) > 0 {
			if lower == nil {
				lower = bytes.ToLower(line)
			}
			if !containsKeyword(lower, p.Keywords) {
				continue
			}
		}
		re, err := m.cache.get(p.Pattern)
		if err != nil {
			logrus.WithFields(logrus.Fields{"pattern": p.Name, "err": err}).Debug("skipping pattern")
			continue
		}
		if mt, ok := firstMatch(p, re, line, n); ok {
			out = append(out, mt)
		}
	}
	return out
}

// containsKeyword reports whether any non-blank keyword occurs in the
// lowercased line. Blank keywords are ignored, matching Set.
func containsKeyword(lower []byte, keywords []string) bool {
	blank := true
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		blank = false
		if bytes.Contains(lower, []byte(kw)) {
			return true
		}
	}
	return blank
}

// Compile builds an immutable Set from the current registry.
func (m *Matcher) Compile() *Set {
	return NewSet(m.patterns)
}
