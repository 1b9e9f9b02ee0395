package knox

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cliBinOnce sync.Once
	cliBin     string
	cliBinErr  error
)

// buildCLI compiles the binary once; `go run` would mask its exit code as 1.
func buildCLI(t *testing.T) string {
	t.Helper()
	cliBinOnce.Do(func() {
		dir, err := os.MkdirTemp("", "knox-e2e-")
		if err != nil {
			cliBinErr = err
			return
		}
		cliBin = filepath.Join(dir, "knox")
		build := exec.Command("go", "build", "-o", cliBin, ".")
		build.Dir = filepath.Clean(filepath.Join("..", ".."))
		build.Stderr = os.Stderr
		cliBinErr = build.Run()
	})
	require.NoError(t, cliBinErr)
	return cliBin
}

// runCLI runs the binary as a subprocess so os.Exit does not end the test.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(buildCLI(t), args...)
	cmd.Dir = filepath.Clean(filepath.Join("..", ".."))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.String(), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return out.String(), 0
}

func vulnerableTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("API_KEY = \"abcdefghijklmnopqrst1234\"\nh = hashlib.md5(b)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("password = \"hunter2hunter2\"\n"), 0o644))
	return dir
}

func TestCLI_JSON_Shape_ExitCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	dir := vulnerableTree(t)
	out, code := runCLI(t, "scan", dir, "--format", "json", "--fail-on", "none", "--baseline", filepath.Join(dir, "none.json"))
	assert.Equal(t, 0, code)

	var env struct {
		ScanID  string `json:"scan_id"`
		Summary struct {
			Total    int `json:"total"`
			Critical int `json:"critical"`
			Medium   int `json:"medium"`
		} `json:"summary"`
		Findings []map[string]any `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.NotEmpty(t, env.ScanID)
	assert.Equal(t, 2, env.Summary.Total, "notes.txt is not an allowed extension")
	assert.Equal(t, 1, env.Summary.Critical)
	assert.Equal(t, 1, env.Summary.Medium)
	require.Len(t, env.Findings, 2)
	assert.Equal(t, "hardcoded_api_key", env.Findings[0]["pattern"])

	_, code = runCLI(t, "scan", dir, "--format", "json", "--fail-on", "high", "--baseline", filepath.Join(dir, "none.json"))
	assert.Equal(t, 1, code)

	_, code = runCLI(t, "scan", filepath.Join(dir, "missing"), "--format", "json")
	assert.Equal(t, 2, code)
}

func TestCLI_SARIF_Shape(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	dir := vulnerableTree(t)
	out, code := runCLI(t, "scan", dir, "--format", "sarif", "--fail-on", "none", "--ext", "txt")
	assert.Equal(t, 0, code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "2.1.0", doc["version"])
	runs := doc["runs"].([]any)
	results := runs[0].(map[string]any)["results"].([]any)
	assert.Len(t, results, 3, "--ext txt adds notes.txt")
}

func TestCLI_BaselineHidesKnownFindings(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	dir := vulnerableTree(t)
	base := filepath.Join(dir, "knox.baseline.json")
	_, code := runCLI(t, "baseline", "update", dir, "--baseline", base)
	require.Equal(t, 0, code)

	out, code := runCLI(t, "scan", dir, "--format", "json", "--baseline", base)
	assert.Equal(t, 0, code, "baselined findings do not fail the scan")
	assert.Contains(t, out, `"findings": []`)
}

func TestCLI_AuditHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	dir := vulnerableTree(t)
	out, _ := runCLI(t, "history", dir)
	assert.Contains(t, out, "No scan history")

	_, code := runCLI(t, "scan", dir, "--format", "json", "--audit", "--fail-on", "none")
	require.Equal(t, 0, code)
	_, err := os.Stat(filepath.Join(dir, ".knox_audit.jsonl"))
	require.NoError(t, err)

	out, code = runCLI(t, "history", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "DURATION")
}

func TestCLI_KnoxIgnore(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	dir := vulnerableTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".knoxignore"), []byte("app.py\n"), 0o644))
	out, code := runCLI(t, "scan", dir, "--format", "json")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"findings": []`)

	out, code = runCLI(t, "scan", dir, "--format", "json", "--no-ignore")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "hardcoded_api_key")
}
