package matcher

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
)

type entry struct {
	pattern types.Pattern
	re      *regexp.Regexp
	gated   bool // evaluated only when one of its keywords is on the line
}

// Set is a precompiled, read-only pattern set. It is safe for concurrent use.
// Patterns that fail to compile are left out and reported by Invalid.
type Set struct {
	entries []entry
	invalid []error

	// keyword prefilter; nil when no pattern declares keywords
	keywords *ahocorasick.Matcher
	owners   [][]int // unique keyword index -> entry indexes
}

// NewSet compiles ps in order.
func NewSet(ps []types.Pattern) *Set {
	s := &Set{}
	var words []string
	index := map[string]int{}
	for _, p := range ps {
		re, err := compile(p.Pattern)
		if err != nil {
			err = fmt.Errorf("pattern %q: %w", p.Name, err)
			logrus.WithFields(logrus.Fields{"pattern": p.Name, "err": err}).Warn("pattern will never match")
			s.invalid = append(s.invalid, err)
			continue
		}
		e := entry{pattern: p, re: re}
		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			// the automaton reports a duplicated keyword once, so every
			// owner hangs off a single entry
			k, ok := index[kw]
			if !ok {
				k = len(words)
				index[kw] = k
				words = append(words, kw)
				s.owners = append(s.owners, nil)
			}
			if o := s.owners[k]; len(o) == 0 || o[len(o)-1] != len(s.entries) {
				s.owners[k] = append(o, len(s.entries))
			}
			e.gated = true
		}
		s.entries = append(s.entries, e)
	}
	if len(words) > 0 {
		s.keywords = ahocorasick.NewStringMatcher(words)
	}
	return s
}

// PatternCount returns the number of usable patterns.
func (s *Set) PatternCount() int { return len(s.entries) }

// Invalid returns the compilation errors of patterns left out of the set.
func (s *Set) Invalid() []error { return s.invalid }

// MatchLine evaluates the set against one line, in registration order.
func (s *Set) MatchLine(line string, lineNumber int) []types.Match {
	return s.matchLine([]byte(line), lineNumber, nil)
}

// MatchContent matches every line of content.
func (s *Set) MatchContent(content string) []types.Match {
	return s.MatchBytes([]byte(content))
}

// MatchBytes matches every line of content. The returned matches do not
// reference content, so it may be unmapped afterwards.
func (s *Set) MatchBytes(content []byte) []types.Match {
	var out []types.Match
	forEachLine(content, func(n int, line []byte) {
		out = s.matchLine(line, n, out)
	})
	return out
}

func (s *Set) matchLine(line []byte, n int, out []types.Match) []types.Match {
	allowed := s.allowed(line)
	for i := range s.entries {
		e := &s.entries[i]
		if e.gated && !allowed[i] {
			continue
		}
		if mt, ok := firstMatch(&e.pattern, e.re, line, n); ok {
			out = append(out, mt)
		}
	}
	return out
}

// allowed marks the gated entries whose keywords occur in line.
func (s *Set) allowed(line []byte) map[int]bool {
	if s.keywords == nil {
		return nil
	}
	hits := s.keywords.MatchThreadSafe(bytes.ToLower(line))
	if len(hits) == 0 {
		return nil
	}
	out := make(map[int]bool, len(hits))
	for _, h := range hits {
		for _, i := range s.owners[h] {
			out[i] = true
		}
	}
	return out
}
