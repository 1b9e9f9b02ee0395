package tui

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/knoxsec/knox/internal/config"
)

// Prefs holds browser settings that persist across sessions.
type Prefs struct {
	// HideSecrets redacts matches in the secrets category.
	HideSecrets bool `json:"hide_secrets"`
	// ContextLines is the number of lines shown on each side of a finding.
	ContextLines int `json:"context_lines"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{HideSecrets: true, ContextLines: 3}
}

// prefsPath sits next to the global config file.
func prefsPath() (string, error) {
	global := config.GlobalPath()
	if global == "" {
		return "", os.ErrNotExist
	}
	return filepath.Join(filepath.Dir(global), "tui_prefs.json"), nil
}

// LoadPrefs loads preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()
	path, err := prefsPath()
	if err != nil {
		return prefs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}
	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // fall back to defaults
	if prefs.ContextLines < 1 || prefs.ContextLines > maxContextLines {
		prefs.ContextLines = DefaultPrefs().ContextLines
	}
	return prefs
}

// SavePrefs persists preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// redactSecret keeps the first 4 characters for context.
func redactSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
