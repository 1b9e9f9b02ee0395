package knox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
	"github.com/spf13/cobra"
)

// demoSource is a small program carrying at least one instance of every
// built-in pattern.
const demoSource = `# Demo vulnerable code
import hashlib
import os
import pickle
import requests

API_KEY = "sk_live_1234567890abcdefghij"
PASSWORD = "admin12345"
DEBUG = True

def get_user(user_id):
    return cursor.execute("SELECT * FROM users WHERE id = '" + user_id + "'")

def run(cmd):
    os.system(cmd)

def hash_password(password):
    return hashlib.md5(password.encode())

def fingerprint(data):
    return hashlib.sha1(data)

def deserialize(data):
    return pickle.loads(data)

def render(name):
    return "<script>el.innerHTML = '" + name + "'</script>"

def fetch(url):
    return requests.get(url, verify=False)
`

func init() {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Scan a built-in vulnerable sample",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println("knox demo: scanning sample vulnerable code...")
			fmt.Println()
			fs, err := demoFindings()
			if err != nil {
				return err
			}
			report.PrintTable(os.Stdout, fs, report.PrintOptions{NoColor: flagNoColor, FilesScanned: 1})
			fmt.Println()
			fmt.Println("Run 'knox scan /your/repo' to scan your own code.")
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}

// demoFindings scans demoSource from a temp file and reports it as demo.py.
func demoFindings() ([]types.Finding, error) {
	dir, err := os.MkdirTemp("", "knox-demo-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "demo.py")
	if err := os.WriteFile(path, []byte(demoSource), 0o644); err != nil {
		return nil, err
	}
	res, err := engine.NewScanner(engine.DefaultMaxFileSizeMB).ScanFile(path)
	if err != nil {
		return nil, err
	}
	res.FilePath = "demo.py"
	return engine.Findings([]types.ScanResult{res}, patterns.Defaults()), nil
}
