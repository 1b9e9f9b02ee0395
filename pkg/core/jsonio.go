package core

import (
	"encoding/json"
	"io"
)

// MarshalResults pretty-prints scan results as JSON for humans or pipelines.
func MarshalResults(w io.Writer, results []ScanResult) error {
	if results == nil {
		results = []ScanResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// UnmarshalResults decodes results JSON, useful for ingestion tests.
func UnmarshalResults(r io.Reader) ([]ScanResult, error) {
	var rs []ScanResult
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, err
	}
	return rs, nil
}
