// Package knox provides the command-line interface for the knox scanner.
// It configures subcommands (scan, demo, patterns, match, baseline, ...),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/knoxsec/knox/cmd/knox"
//	func main() { knox.Execute() }
package knox
