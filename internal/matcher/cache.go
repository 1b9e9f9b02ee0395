package matcher

import (
	"fmt"
	"regexp"
)

// regexCache memoizes compiled expressions by their source text. Failed
// compilations are not stored, so they are retried on every lookup.
type regexCache struct {
	entries map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{entries: map[string]*regexp.Regexp{}}
}

func (c *regexCache) get(expr string) (*regexp.Regexp, error) {
	if re, ok := c.entries[expr]; ok {
		return re, nil
	}
	re, err := compile(expr)
	if err != nil {
		return nil, err
	}
	c.entries[expr] = re
	return re, nil
}

func (c *regexCache) len() int { return len(c.entries) }

func compile(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}
