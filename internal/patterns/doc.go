// Package patterns holds the built-in vulnerability signatures used by knox
// and loads additional signatures from YAML rule files.
package patterns
