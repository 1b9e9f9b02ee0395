package knox

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knoxsec/knox/internal/audit"
	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick(t *testing.T) {
	local, global := 3, 5
	assert.Equal(t, 7, pick(true, 7, &local, &global))
	assert.Equal(t, 3, pick(false, 7, &local, &global))
	assert.Equal(t, 5, pick(false, 7, nil, &global))
	assert.Equal(t, 7, pick(false, 7, nil, nil))

	f := false
	assert.False(t, pick(false, true, &f, nil), "explicit false in config overrides a true default")

	assert.Equal(t, []string{"a"}, pickSlice(true, []string{"a"}, []string{"b"}, nil))
	assert.Equal(t, []string{"b"}, pickSlice(false, nil, []string{"b"}, []string{"c"}))
	assert.Equal(t, []string{"c"}, pickSlice(false, nil, nil, []string{"c"}))
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".kt", normalizeExt("kt"))
	assert.Equal(t, ".kt", normalizeExt(" .kt "))
	assert.Equal(t, "", normalizeExt(""))
}

func TestMatchText(t *testing.T) {
	fs, err := matchText("x = hashlib.md5(b)\nDEBUG = True\n", patterns.Defaults(), "")
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "stdin", fs[0].Path)
	assert.Equal(t, "weak_crypto_md5", fs[0].Pattern)
	assert.Equal(t, "Weak cryptographic algorithm MD5", fs[0].Description)

	fs, err = matchText("x = hashlib.md5(b)\nDEBUG = True\n", patterns.Defaults(), "debug_mode")
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 2, fs[0].Line)

	_, err = matchText("", patterns.Defaults(), "nope")
	assert.ErrorContains(t, err, "unknown pattern")
}

func TestReplaceBetweenMarkers(t *testing.T) {
	in := []byte("# Title\n" + docsBegin + "\nold\n" + docsEnd + "\ntail\n")
	out, err := replaceBetweenMarkers(in, patternsMarkdown(patterns.Defaults()[:1]))
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "| `hardcoded_api_key` | critical | secrets |")
	assert.NotContains(t, s, "old")
	assert.Contains(t, s, "tail")

	_, err = replaceBetweenMarkers([]byte("no markers"), "")
	assert.Error(t, err)
}

func TestExecuteScan_DirectoryFileAndList(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	b := filepath.Join(dir, "b.kt")
	require.NoError(t, os.WriteFile(a, []byte("os.system(cmd)\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("val h = md5(x)\n"), 0o644))
	ctx := context.Background()

	out, err := executeScan(ctx, scanSettings{engine: engine.DefaultConfig(dir)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.filesScanned)
	require.Len(t, out.findings, 1)
	assert.Equal(t, "command_injection", out.findings[0].Pattern)

	out, err = executeScan(ctx, scanSettings{engine: engine.DefaultConfig(dir), extensions: []string{"kt"}})
	require.NoError(t, err)
	assert.Len(t, out.findings, 2)

	out, err = executeScan(ctx, scanSettings{engine: engine.DefaultConfig(b)})
	require.NoError(t, err, "a file root is scanned regardless of extension")
	assert.Len(t, out.findings, 1)

	out, err = executeScan(ctx, scanSettings{engine: engine.DefaultConfig(dir), files: []string{b}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.filesScanned)

	_, err = executeScan(ctx, scanSettings{engine: engine.DefaultConfig(dir), files: []string{filepath.Join(dir, "missing.py")}})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestLoadIgnore(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, loadIgnore(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".knoxignore"), []byte("fixtures/\n"), 0o644))
	m := loadIgnore(dir)
	require.NotNil(t, m)
	assert.True(t, m.Match("fixtures/leak.py"))

	flagNoIgnore = true
	defer func() { flagNoIgnore = false }()
	assert.Nil(t, loadIgnore(dir))
	assert.Empty(t, ignoreRoot(dir))
}

func TestExecuteScan_CustomRules(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(rules, []byte("patterns:\n  - name: todo_marker\n    regex: TODO\n    severity: low\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("// TODO fix\n"), 0o644))

	out, err := executeScan(context.Background(), scanSettings{engine: engine.DefaultConfig(dir), rules: []string{rules}})
	require.NoError(t, err)
	require.Len(t, out.findings, 1)
	assert.Equal(t, "todo_marker", out.findings[0].Pattern)
	assert.Equal(t, "custom", out.findings[0].Category)
}

func TestResolveSettings_LogsUnreadableGlobalConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "knox"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "knox", "config.yml"), []byte("max_depth: [oops\n"), 0o644))

	hook := test.NewGlobal()
	defer hook.Reset()
	prev := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(prev)

	cmd := &cobra.Command{Use: "scan"}
	addScanFlags(cmd)
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "high", "")
	cmd.Flags().BoolVar(&flagNoColor, "no-color", false, "")
	require.NoError(t, cmd.Flags().Parse(nil))

	st := resolveSettings(cmd, t.TempDir())
	assert.Equal(t, -1, st.engine.MaxDepth)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "no global config" {
			found = true
			assert.Equal(t, logrus.DebugLevel, e.Level)
			assert.Equal(t, filepath.Join(xdg, "knox", "config.yml"), e.Data["path"])
			assert.NotNil(t, e.Data[logrus.ErrorKey])
		}
	}
	assert.True(t, found, "global config failure should be logged")
}

func TestResolveSettings_LocalConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".knox.yml"), []byte("max_depth: 2\nparallel: false\nfail_on: low\nextensions: [\".kt\"]\n"), 0o644))

	cmd := &cobra.Command{Use: "scan"}
	addScanFlags(cmd)
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "high", "")
	cmd.Flags().BoolVar(&flagNoColor, "no-color", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--threads", "3"}))

	st := resolveSettings(cmd, dir)
	assert.Equal(t, 2, st.engine.MaxDepth)
	assert.False(t, st.engine.Parallel)
	assert.Equal(t, 3, st.engine.Threads)
	assert.Equal(t, "low", st.failOn)
	assert.Equal(t, []string{".kt"}, st.extensions)
	assert.Equal(t, report.DefaultBaselineFile, st.baseline)
}

func TestWriteReport_Formats(t *testing.T) {
	fs := []types.Finding{{Path: "a.py", Line: 1, Pattern: "debug_mode", Severity: types.SevMed, Category: "config", Match: "DEBUG = True"}}
	meta := report.Meta{Version: version}
	for _, format := range reportFormats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeReport(&buf, format, fs, meta, report.PrintOptions{NoColor: true}))
			assert.Contains(t, buf.String(), "debug_mode")
		})
	}
}

func TestWriteReportTo_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, writeReportTo(path, "markdown", nil, report.Meta{}, report.PrintOptions{}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "# knox security report")
}

func TestInitialConfig(t *testing.T) {
	cfg := initialConfig()
	require.NotNil(t, cfg.Baseline)
	assert.Equal(t, report.DefaultBaselineFile, *cfg.Baseline)
	assert.Nil(t, cfg.Threads)
	assert.True(t, *cfg.Parallel)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	recs := []audit.Record{{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ScanID:       "0123456789abcdef",
		FilesScanned: 12,
		Summary:      report.Summary{Total: 3, Critical: 1, Low: 2},
		NewFindings:  2,
		Duration:     "1.2s",
	}}
	require.NoError(t, printHistory(&buf, recs))
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "1.2s")
}

func TestHistoryRoot(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	assert.Equal(t, dir, historyRoot(f))
	assert.Equal(t, dir, historyRoot(dir))
}

func TestWriteCompletion(t *testing.T) {
	for _, sh := range completionShells {
		t.Run(sh, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCompletion(&buf, sh))
			assert.Contains(t, buf.String(), "knox")
		})
	}
}

func TestDemoFindings_CoverEveryDefaultPattern(t *testing.T) {
	fs, err := demoFindings()
	require.NoError(t, err)
	hit := map[string]bool{}
	for _, f := range fs {
		assert.Equal(t, "demo.py", f.Path)
		hit[f.Pattern] = true
	}
	for _, p := range patterns.Defaults() {
		assert.True(t, hit[p.Name], "demo sample should trigger %s", p.Name)
	}
}

func TestPrintPatterns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPatterns(&buf, patterns.Defaults()))
	out := buf.String()
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "ssl_verification_disabled")
}
