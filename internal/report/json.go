package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/knoxsec/knox/internal/types"
)

// Envelope is the JSON report document.
type Envelope struct {
	ScanID       string          `json:"scan_id"`
	ScanDate     string          `json:"scan_date"`
	Version      string          `json:"version"`
	Root         string          `json:"root,omitempty"`
	Repo         string          `json:"repo,omitempty"`
	Commit       string          `json:"commit,omitempty"`
	Branch       string          `json:"branch,omitempty"`
	FilesScanned int             `json:"files_scanned"`
	DurationMs   int64           `json:"duration_ms"`
	Summary      Summary         `json:"summary"`
	Findings     []types.Finding `json:"findings"`
}

// NewEnvelope assembles a report document. A missing scan ID or start time
// is filled in.
func NewEnvelope(findings []types.Finding, meta Meta) Envelope {
	if findings == nil {
		findings = []types.Finding{}
	}
	if meta.ScanID == "" {
		meta.ScanID = uuid.NewString()
	}
	if meta.StartedAt.IsZero() {
		meta.StartedAt = time.Now()
	}
	return Envelope{
		ScanID:       meta.ScanID,
		ScanDate:     meta.StartedAt.UTC().Format(time.RFC3339),
		Version:      meta.Version,
		Root:         meta.Root,
		Repo:         meta.Repo,
		Commit:       meta.Commit,
		Branch:       meta.Branch,
		FilesScanned: meta.FilesScanned,
		DurationMs:   meta.Duration.Milliseconds(),
		Summary:      Summarize(findings),
		Findings:     findings,
	}
}

// WriteJSON writes the JSON report.
func WriteJSON(w io.Writer, findings []types.Finding, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewEnvelope(findings, meta))
}
