// Package report renders findings as text, tables, JSON, SARIF, Markdown and
// HTML, and manages baselines and the fail-on threshold.
package report
