package types

import "strings"

// Severity is a coarse-grained risk level for a pattern and its matches.
type Severity string

const (
	SevLow      Severity = "low"
	SevMed      Severity = "medium"
	SevHigh     Severity = "high"
	SevCritical Severity = "critical"
)

// Rank orders severities from low (1) to critical (4). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SevLow:
		return 1
	case SevMed:
		return 2
	case SevHigh:
		return 3
	case SevCritical:
		return 4
	}
	return 0
}

// ParseSeverity normalizes s and reports whether it names a known level.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	return sev, sev.Rank() > 0
}

// Pattern is a named vulnerability signature. Keywords are optional literal
// hints used to skip lines that cannot match.
type Pattern struct {
	Name        string   `json:"name" yaml:"name"`
	Pattern     string   `json:"regex" yaml:"regex"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Match is one occurrence of a pattern. LineNumber is 1-based, Column is the
// 0-based byte offset of the match start within its line.
type Match struct {
	LineNumber  int      `json:"line_number"`
	Column      int      `json:"column"`
	PatternName string   `json:"pattern_name"`
	Severity    Severity `json:"severity"`
	MatchedText string   `json:"matched_text"`
	Category    string   `json:"category"`
}

// ScanResult is the outcome of scanning one file.
type ScanResult struct {
	FilePath   string  `json:"file_path"`
	Matches    []Match `json:"matches"`
	ScanTimeMs int64   `json:"scan_time_ms"`
	FileSize   int64   `json:"file_size"`
}

// Finding is a Match flattened with its file path for reporting.
type Finding struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Pattern     string   `json:"pattern"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Match       string   `json:"match"`
	Description string   `json:"description,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}
