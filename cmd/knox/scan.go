package knox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knoxsec/knox/internal/audit"
	"github.com/knoxsec/knox/internal/config"
	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/ignore"
	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/tui"
	"github.com/knoxsec/knox/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagFiles           []string
	flagFormat          string
	flagOutput          string
	flagMaxDepth        int
	flagParallel        bool
	flagThreads         int
	flagMaxFileSize     int64
	flagExt             []string
	flagInclude         string
	flagExclude         string
	flagDefaultExcludes bool
	flagRules           []string
	flagFailOn          string
	flagBaseline        string
	flagTUI             bool
	flagNoIgnore        bool
	flagAudit           bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory or file for security issues",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)
	addScanFlags(cmd)

	cmd.Flags().StringSliceVar(&flagFiles, "files", nil, "scan only these files (comma-separated or repeated)")
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "table", "report format: "+strings.Join(reportFormats, "|"))
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "high", "exit 1 on findings at or above: low|medium|high|critical|none")
	cmd.Flags().BoolVar(&flagTUI, "tui", false, "browse findings interactively")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a summary of this scan to the scan history (see knox history)")
}

// addScanFlags registers the flags that shape what a scan visits and
// matches. They are shared by every command that runs a scan.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagMaxDepth, "max-depth", -1, "max directory depth below the root (-1 = unlimited)")
	cmd.Flags().BoolVar(&flagParallel, "parallel", true, "scan files concurrently")
	cmd.Flags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&flagMaxFileSize, "max-file-size", engine.DefaultMaxFileSizeMB, "skip files larger than this many MB")
	cmd.Flags().StringSliceVar(&flagExt, "ext", nil, "additional file extensions to scan (e.g. .kt,.swift)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", false, "skip vendored, build and generated paths (node_modules, dist, *.min.js, ...)")
	cmd.Flags().StringSliceVar(&flagRules, "rules", nil, "YAML rule files with extra patterns")
	cmd.Flags().StringVar(&flagBaseline, "baseline", report.DefaultBaselineFile, "baseline file")
	cmd.Flags().BoolVar(&flagNoIgnore, "no-ignore", false, "do not read "+ignore.FileName+" at the scan root")
}

// loadIgnore reads the ignore file at a directory root. A missing file
// yields nil.
func loadIgnore(root string) *ignore.Matcher {
	if ignoreRoot(root) == "" {
		return nil
	}
	m, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("ignore file unreadable")
		}
		return nil
	}
	logrus.WithField("patterns", m.Len()).Debug("loaded " + ignore.FileName)
	return m
}

// scanSettings is the resolved configuration of one scan.
type scanSettings struct {
	files         []string
	maxFileSizeMB int64
	extensions    []string
	rules         []string
	failOn        string
	baseline      string
	noColor       bool
	engine        engine.Config
}

// resolveSettings merges flags with the local config found at root and the
// global config. Precedence: CLI > local > global > flag default.
func resolveSettings(cmd *cobra.Command, root string) scanSettings {
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	} else {
		logrus.WithError(err).WithField("path", config.GlobalPath()).Debug("no global config")
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	} else {
		logrus.WithError(err).Debug("no local config")
	}
	ch := cmd.Flags().Changed

	ec := engine.DefaultConfig(root)
	ec.MaxDepth = pick(ch("max-depth"), flagMaxDepth, lcfg.MaxDepth, gcfg.MaxDepth)
	ec.Parallel = pick(ch("parallel"), flagParallel, lcfg.Parallel, gcfg.Parallel)
	ec.Threads = pick(ch("threads"), flagThreads, lcfg.Threads, gcfg.Threads)
	ec.IncludeGlobs = pick(ch("include"), flagInclude, lcfg.Include, gcfg.Include)
	ec.ExcludeGlobs = pick(ch("exclude"), flagExclude, lcfg.Exclude, gcfg.Exclude)
	ec.DefaultExcludes = pick(ch("default-excludes"), flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes)
	ec.Ignore = loadIgnore(root)

	return scanSettings{
		files:         flagFiles,
		maxFileSizeMB: pick(ch("max-file-size"), flagMaxFileSize, lcfg.MaxFileSizeMB, gcfg.MaxFileSizeMB),
		extensions:    pickSlice(ch("ext"), flagExt, lcfg.Extensions, gcfg.Extensions),
		rules:         pickSlice(ch("rules"), flagRules, lcfg.Rules, gcfg.Rules),
		failOn:        pick(ch("fail-on"), flagFailOn, lcfg.FailOn, gcfg.FailOn),
		baseline:      pick(ch("baseline"), flagBaseline, lcfg.Baseline, gcfg.Baseline),
		noColor:       pick(ch("no-color"), flagNoColor, lcfg.NoColor, gcfg.NoColor),
		engine:        ec,
	}
}

// scanOutcome is what a scan produced, before baseline filtering.
type scanOutcome struct {
	findings     []types.Finding
	patterns     []types.Pattern
	filesScanned int
	filesFailed  int
	startedAt    time.Time
	duration     time.Duration
}

// executeScan loads the pattern registry and scans either the explicit file
// list, a single-file root, or the root directory.
func executeScan(ctx context.Context, st scanSettings) (scanOutcome, error) {
	var out scanOutcome
	ps, err := patterns.LoadAll(st.rules)
	if err != nil {
		return out, err
	}
	out.patterns = ps

	sc := engine.NewScannerWithMatcher(matcher.NewWithPatterns(ps...), st.maxFileSizeMB)
	for _, e := range st.extensions {
		sc.AddExtension(normalizeExt(e))
	}

	started := time.Now()
	out.startedAt = started
	files := st.files
	if len(files) == 0 {
		if info, err := os.Stat(st.engine.Root); err == nil && info.Mode().IsRegular() {
			files = []string{st.engine.Root}
		}
	}

	var results []types.ScanResult
	if len(files) > 0 {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			r, err := sc.ScanFile(f)
			if err != nil {
				return out, err
			}
			results = append(results, r)
			out.filesScanned++
			if st.engine.Progress != nil {
				st.engine.Progress(i+1, len(files))
			}
		}
	} else {
		res, err := sc.ScanDirectoryWithStats(ctx, st.engine)
		if err != nil {
			return out, err
		}
		results = res.Results
		out.filesScanned = res.FilesScanned
		out.filesFailed = res.FilesFailed
	}
	out.duration = time.Since(started)
	out.findings = engine.Findings(results, ps)
	return out, nil
}

func normalizeExt(e string) string {
	e = strings.TrimSpace(e)
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	format := strings.ToLower(flagFormat)
	if !slices.Contains(reportFormats, format) {
		return fmt.Errorf("unknown format %q (want %s)", flagFormat, strings.Join(reportFormats, "|"))
	}
	st := resolveSettings(cmd, root)
	interactive := isHumanFormat(format) && flagOutput == "" && term.IsTerminal(int(os.Stderr.Fd()))

	if interactive && !flagTUI {
		_, _ = fmt.Fprintf(os.Stderr, "Scanning %s...\n", root)
		st.engine.Progress = func(done, total int) {
			if done%10 == 0 || done == total {
				_, _ = fmt.Fprintf(os.Stderr, "\r[%d/%d] %.0f%%", done, total, float64(done)/float64(total)*100)
			}
		}
	}
	out, err := executeScan(cmd.Context(), st)
	if st.engine.Progress != nil {
		_, _ = fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	base, err := report.LoadBaseline(st.baseline)
	if err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("ignoring unreadable baseline")
	}

	if flagTUI {
		return tui.Run(out.findings, tui.Options{
			Baseline:     base,
			BaselinePath: st.baseline,
			Rescan: func() ([]types.Finding, error) {
				st.engine.Ignore = loadIgnore(root)
				o, err := executeScan(context.Background(), st)
				return o.findings, err
			},
			Prefs:        tui.LoadPrefs(),
			PersistPrefs: true,
			IgnoreRoot:   ignoreRoot(root),
		})
	}

	newFindings := report.FilterNewFindings(out.findings, base)
	if newFindings == nil {
		newFindings = []types.Finding{}
	} // no `null` in JSON

	meta := buildMeta(root, out)
	opts := report.PrintOptions{
		NoColor:       st.noColor || flagOutput != "",
		Duration:      out.duration,
		FilesScanned:  out.filesScanned,
		TotalFindings: len(out.findings),
	}
	if err := writeReportTo(flagOutput, format, newFindings, meta, opts); err != nil {
		return err
	}
	if flagOutput != "" {
		_, _ = fmt.Fprintf(os.Stderr, "Report saved to %s\n", flagOutput)
	}
	if flagAudit {
		l := audit.New(historyRoot(root))
		if err := l.Append(audit.NewRecord(meta, out.findings, newFindings, st.baseline)); err != nil {
			logrus.WithError(err).Warn("could not record scan history")
		} else {
			logrus.WithField("path", l.Path()).Debug("scan recorded")
		}
	}
	if report.ShouldFail(newFindings, st.failOn) {
		os.Exit(1)
	}
	return nil
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// ignoreRoot returns root when it is a directory whose ignore file the
// browser may edit.
func ignoreRoot(root string) string {
	if flagNoIgnore {
		return ""
	}
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return root
	}
	return ""
}

// historyRoot is the directory whose history a scan of root belongs to.
func historyRoot(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}
