package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/knoxsec/knox/internal/types"
)

// DefaultBaselineFile is the baseline file name used by the CLI.
const DefaultBaselineFile = "knox.baseline.json"

// Baseline records accepted findings by fingerprint so later scans only
// report new ones.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline file. A missing or unreadable file yields an
// empty baseline together with the error.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline replaces the baseline at path with the given findings. The
// write holds a lock file next to path and goes through a temp file and
// rename, so concurrent scans never observe a partial baseline.
func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[BaselineKey(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock baseline %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()
	return atomicWrite(path, append(buf, '\n'))
}

// UpdateBaseline adds and removes individual findings in the baseline at
// path, keeping every other entry.
func UpdateBaseline(path string, add, remove []types.Finding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock baseline %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	b, err := LoadBaseline(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, f := range add {
		b.Items[BaselineKey(f)] = true
	}
	for _, f := range remove {
		delete(b.Items, BaselineKey(f))
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, append(buf, '\n'))
}

// Contains reports whether f is recorded in the baseline.
func (b Baseline) Contains(f types.Finding) bool {
	return b.Items[BaselineKey(f)]
}

// FilterNewFindings drops findings recorded in base.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[BaselineKey(f)] {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns the baseline entries in sorted order.
func (b Baseline) Keys() []string {
	out := make([]string, 0, len(b.Items))
	for k := range b.Items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BaselineKey identifies f in a baseline: its fingerprint, or path, pattern
// and match when no fingerprint is set.
func BaselineKey(f types.Finding) string {
	if f.Fingerprint != "" {
		return f.Fingerprint
	}
	return f.Path + "|" + f.Pattern + "|" + f.Match
}

// ShouldFail reports whether any finding is at or above the failOn level.
// An unknown level falls back to "high"; "none" never fails.
func ShouldFail(findings []types.Finding, failOn string) bool {
	if failOn == "none" {
		return false
	}
	th, ok := types.ParseSeverity(failOn)
	if !ok {
		th = types.SevHigh
	}
	for _, f := range findings {
		if f.Severity.Rank() >= th.Rank() {
			return true
		}
	}
	return false
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".knox-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
