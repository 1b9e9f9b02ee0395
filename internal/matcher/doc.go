// Package matcher applies vulnerability patterns to text.
//
// A Matcher owns an append-only pattern registry and a lazily populated regex
// cache; it is meant for a single goroutine. Compile turns the registry into
// an immutable Set that can be shared by any number of goroutines. Both report
// at most one Match per pattern per line: the leftmost occurrence.
package matcher
