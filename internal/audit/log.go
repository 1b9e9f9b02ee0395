// Package audit keeps an append-only JSON Lines history of scans.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
)

// maxTop bounds the findings summarized in a record.
const maxTop = 10

// Record is one scan in the history.
type Record struct {
	Timestamp    time.Time        `json:"timestamp"`
	ScanID       string           `json:"scan_id"`
	Root         string           `json:"root"`
	Commit       string           `json:"commit,omitempty"`
	Summary      report.Summary   `json:"summary"`
	NewFindings  int              `json:"new_findings"`
	Baselined    int              `json:"baselined"`
	FilesScanned int              `json:"files_scanned"`
	Duration     string           `json:"duration"`
	BaselineFile string           `json:"baseline_file,omitempty"`
	Top          []FindingSummary `json:"top_findings,omitempty"`
}

// FindingSummary is a finding without its matched text.
type FindingSummary struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Pattern  string `json:"pattern"`
	Severity string `json:"severity"`
}

// Log is the history file of one scan root.
type Log struct {
	path string
}

// New returns the log for root. It lives inside .git when root is a
// repository so it stays out of the working tree.
func New(root string) *Log {
	path := filepath.Join(root, ".knox_audit.jsonl")
	if st, err := os.Stat(filepath.Join(root, ".git")); err == nil && st.IsDir() {
		path = filepath.Join(root, ".git", "knox_audit.jsonl")
	}
	return &Log{path: path}
}

// Path returns the history file location.
func (l *Log) Path() string { return l.path }

// Append writes rec as one line. The file is owner-only.
func (l *Log) Append(rec Record) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// History returns the recorded scans, newest first. Malformed lines are
// skipped.
func (l *Log) History() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var recs []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var r Record
		if err := dec.Decode(&r); err != nil {
			break
		}
		recs = append(recs, r)
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// NewRecord summarizes a finished scan. all is every finding, fresh the ones
// not in the baseline.
func NewRecord(meta report.Meta, all, fresh []types.Finding, baselineFile string) Record {
	top := make([]FindingSummary, 0, min(len(fresh), maxTop))
	for _, f := range fresh {
		if len(top) == maxTop {
			break
		}
		top = append(top, FindingSummary{Path: f.Path, Line: f.Line, Pattern: f.Pattern, Severity: string(f.Severity)})
	}
	ts := meta.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return Record{
		Timestamp:    ts.UTC(),
		ScanID:       meta.ScanID,
		Root:         meta.Root,
		Commit:       meta.Commit,
		Summary:      report.Summarize(all),
		NewFindings:  len(fresh),
		Baselined:    len(all) - len(fresh),
		FilesScanned: meta.FilesScanned,
		Duration:     meta.Duration.Round(time.Millisecond).String(),
		BaselineFile: baselineFile,
		Top:          top,
	}
}
