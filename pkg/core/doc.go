// Package core provides a small, stable facade over knox's internal engine
// for embedding programs. It re-exports a narrow API surface so callers can
// depend on a stable import path without reaching into internal packages.
//
// Example:
//
//	results, err := core.ScanDirectory(".", core.DefaultScanOptions())
//	if err != nil { /* handle */ }
//	_ = core.MarshalResults(os.Stdout, results)
package core
