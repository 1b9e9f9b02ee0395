package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/knoxsec/knox/internal/ignore"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
)

// clipboardWrite is swapped in tests.
var clipboardWrite = clipboard.WriteAll

func (m *Model) rescan() tea.Cmd {
	fn := m.rescanFunc
	return func() tea.Msg {
		findings, err := fn()
		if err != nil {
			return statusMsg(fmt.Sprintf("Scan error: %v", err))
		}
		return findingsMsg(findings)
	}
}

// toggleBaseline adds the current finding to the baseline file, or removes
// it when it is already recorded.
func (m Model) toggleBaseline() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	if m.baselinePath == "" {
		return func() tea.Msg { return statusMsg("Baseline editing not available") }
	}
	path := m.baselinePath
	add := !m.baseline.Contains(f)
	return func() tea.Msg {
		var err error
		if add {
			err = report.UpdateBaseline(path, []types.Finding{f}, nil)
		} else {
			err = report.UpdateBaseline(path, nil, []types.Finding{f})
		}
		if err != nil {
			return statusMsg(fmt.Sprintf("Error updating baseline: %v", err))
		}
		return baselineMsg{finding: f, added: add}
	}
}

// copyLocation copies path:line of the current finding to the clipboard.
func (m Model) copyLocation() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return func() tea.Msg { return statusMsg("No finding selected") }
	}
	loc := fmt.Sprintf("%s:%d", f.Path, f.Line)
	return func() tea.Msg {
		if err := clipboardWrite(loc); err != nil {
			return statusMsg(fmt.Sprintf("Clipboard error: %v", err))
		}
		return statusMsg("Copied: " + loc)
	}
}

// ignoreFile appends the current finding's file, anchored at the scan root,
// to the root's ignore file and drops its findings from the list.
func (m Model) ignoreFile() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	if m.ignoreRoot == "" {
		return func() tea.Msg { return statusMsg("Ignoring files not available") }
	}
	root := m.ignoreRoot
	return func() tea.Msg {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return statusMsg(fmt.Sprintf("Cannot ignore %s: outside %s", f.Path, root))
		}
		pattern := "/" + filepath.ToSlash(rel)
		if err := ignore.Append(filepath.Join(root, ignore.FileName), pattern); err != nil {
			return statusMsg(fmt.Sprintf("Error updating %s: %v", ignore.FileName, err))
		}
		return ignoredMsg{path: f.Path, pattern: pattern}
	}
}
