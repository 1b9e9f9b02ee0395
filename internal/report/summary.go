package report

import (
	"time"

	"github.com/knoxsec/knox/internal/types"
)

// Summary counts findings per severity.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Summarize tallies findings by severity.
func Summarize(findings []types.Finding) Summary {
	var s Summary
	for _, f := range findings {
		s.Total++
		switch f.Severity {
		case types.SevCritical:
			s.Critical++
		case types.SevHigh:
			s.High++
		case types.SevMed:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// Meta describes the scan a report belongs to.
type Meta struct {
	ScanID       string
	Version      string
	Root         string
	Repo         string
	Commit       string
	Branch       string
	FilesScanned int
	Duration     time.Duration
	StartedAt    time.Time
}
