package core

import (
	"context"

	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Severity   = types.Severity
	Pattern    = types.Pattern
	Match      = types.Match
	ScanResult = types.ScanResult
	Finding    = types.Finding
	Matcher    = matcher.Matcher
	Scanner    = engine.Scanner
	// Config drives (*Scanner).ScanDirectory and ScanDirectoryWithStats.
	Config     = engine.Config
	// ScanStats is the result of (*Scanner).ScanDirectoryWithStats.
	ScanStats  = engine.Result
)

const (
	SevLow      = types.SevLow
	SevMed      = types.SevMed
	SevHigh     = types.SevHigh
	SevCritical = types.SevCritical
)

// Error categories. Use errors.Is to test for them.
var (
	ErrNotFound       = engine.ErrNotFound
	ErrIO             = engine.ErrIO
	ErrInvalidPattern = matcher.ErrInvalidPattern
)

// ScanOptions control a directory scan.
type ScanOptions struct {
	MaxDepth int  // negative means unlimited
	Parallel bool // fan files out over a worker pool
}

// DefaultScanOptions returns unlimited depth with parallel dispatch.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{MaxDepth: -1, Parallel: true}
}

// DefaultConfig returns a directory scan config for root with unlimited
// depth and parallel dispatch, for use with a Scanner built by NewScanner.
func DefaultConfig(root string) Config { return engine.DefaultConfig(root) }

// NewMatcher returns a matcher preloaded with the built-in patterns.
func NewMatcher() *Matcher { return matcher.New() }

// NewScanner returns a file scanner with the built-in patterns and the given
// size limit in megabytes (0 selects the default of 10).
func NewScanner(maxFileSizeMB int64) *Scanner { return engine.NewScanner(maxFileSizeMB) }

// ScanFile scans one file with a default scanner.
func ScanFile(path string) (ScanResult, error) {
	return engine.NewScanner(0).ScanFile(path)
}

// ScanDirectory scans a tree with a default scanner.
func ScanDirectory(path string, opts ScanOptions) ([]ScanResult, error) {
	return ScanDirectoryContext(context.Background(), path, opts)
}

// ScanDirectoryContext is ScanDirectory with cancellation.
func ScanDirectoryContext(ctx context.Context, path string, opts ScanOptions) ([]ScanResult, error) {
	cfg := engine.DefaultConfig(path)
	cfg.MaxDepth = opts.MaxDepth
	cfg.Parallel = opts.Parallel
	return engine.NewScanner(0).ScanDirectory(ctx, cfg)
}

// PatternIDs returns the names of the built-in patterns.
// This is exposed for convenience to avoid importing internals directly.
func PatternIDs() []string { return patterns.IDs() }

// Findings flattens scan results into report rows.
func Findings(results []ScanResult) []Finding {
	return engine.Findings(results, patterns.Defaults())
}
