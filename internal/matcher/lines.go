package matcher

import (
	"bytes"
	"regexp"

	"github.com/knoxsec/knox/internal/types"
)

// forEachLine calls fn for every logical line of content with its 1-based
// number. Lines end at "\n"; a "\r" directly before it is dropped. A final
// newline does not start another line.
func forEachLine(content []byte, fn func(n int, line []byte)) {
	n := 0
	for len(content) > 0 {
		var line []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line = content[:i]
			content = content[i+1:]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
		} else {
			line = content
			content = nil
		}
		n++
		fn(n, line)
	}
}

// firstMatch reports the leftmost occurrence of re in line. The matched text
// is copied so it stays valid after the backing buffer goes away.
func firstMatch(p *types.Pattern, re *regexp.Regexp, line []byte, n int) (types.Match, bool) {
	loc := re.FindIndex(line)
	if loc == nil {
		return types.Match{}, false
	}
	return types.Match{
		LineNumber:  n,
		Column:      loc[0],
		PatternName: p.Name,
		Severity:    p.Severity,
		MatchedText: string(line[loc[0]:loc[1]]),
		Category:    p.Category,
	}, true
}
