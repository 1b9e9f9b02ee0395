package core_test

import (
	"fmt"
	"os"

	"github.com/knoxsec/knox/pkg/core"
)

// ExampleScanDirectory demonstrates a sequential scan limited to two levels.
func ExampleScanDirectory() {
	opts := core.DefaultScanOptions()
	opts.MaxDepth = 2
	opts.Parallel = false

	results, err := core.ScanDirectory(".", opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}
	for _, r := range results {
		for _, m := range r.Matches {
			fmt.Printf("%s:%d %s (%s)\n", r.FilePath, m.LineNumber, m.PatternName, m.Severity)
		}
	}
}

// ExampleMatcher shows matching ad-hoc text against the built-in patterns.
func ExampleMatcher() {
	m := core.NewMatcher()
	for _, match := range m.MatchContent("x = 1\nhashlib.md5(data)\n") {
		fmt.Println(match.LineNumber, match.Column, match.PatternName, match.Category)
	}
	// Output: 2 0 weak_crypto_md5 crypto
}
