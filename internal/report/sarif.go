package report

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/knoxsec/knox/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int          `json:"startLine"`
	StartColumn int          `json:"startColumn"`
	Snippet     sarifMessage `json:"snippet"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer. Rules
// are emitted once per pattern in first-seen order.
func WriteSARIF(w io.Writer, findings []types.Finding, meta Meta) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "knox",
			Version:        meta.Version,
			InformationURI: "https://github.com/knoxsec/knox",
			Rules:          []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	index := map[string]int{}
	for _, f := range findings {
		idx, ok := index[f.Pattern]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[f.Pattern] = idx
			text := f.Description
			if text == "" {
				text = f.Pattern
			}
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               f.Pattern,
				ShortDescription: sarifMessage{Text: text},
				Properties:       map[string]string{"category": f.Category, "severity": string(f.Severity)},
			})
		}
		msg := f.Description
		if msg == "" {
			msg = f.Pattern + " detected"
		}
		res := sarifResult{
			RuleID:    f.Pattern,
			RuleIndex: idx,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: msg},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: filepath.ToSlash(f.Path)},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column + 1,
						Snippet:     sarifMessage{Text: MaskedMatch(f)},
					},
				},
			}},
		}
		if f.Fingerprint != "" {
			res.PartialFingerprints = map[string]string{"knoxFingerprint/v1": f.Fingerprint}
		}
		run.Results = append(run.Results, res)
	}
	props := map[string]any{"filesScanned": meta.FilesScanned}
	if meta.ScanID != "" {
		props["scanId"] = meta.ScanID
	}
	if meta.Repo != "" {
		props["repo"] = meta.Repo
	}
	if meta.Commit != "" {
		props["commit"] = meta.Commit
	}
	if meta.Branch != "" {
		props["branch"] = meta.Branch
	}
	run.Properties = props

	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
