package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/knoxsec/knox/internal/types"
	"github.com/olekukonko/tablewriter"
)

type PrintOptions struct {
	NoColor       bool
	Duration      time.Duration
	FilesScanned  int
	TotalFindings int // before baseline filtering; 0 means same as shown
}

func sortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
}

// PrintText writes one aligned line per finding followed by a summary.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
	} else {
		maxPat := 8
		for _, f := range findings {
			if l := len(f.Pattern); l > maxPat {
				maxPat = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			sev := severityLabel(f.Severity, opts.NoColor)
			fmt.Fprintf(w, "%s %-*s %s:%d:%d  %s\n", sev, maxPat, f.Pattern, f.Path, f.Line, f.Column, MaskedMatch(f))
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings in a bordered table followed by a summary.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
		printFooter(w, findings, opts)
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("SEVERITY", "PATTERN", "CATEGORY", "LOCATION", "MATCH")
	for _, f := range findings {
		_ = table.Append(
			severityLabel(f.Severity, opts.NoColor),
			f.Pattern,
			f.Category,
			f.Path+":"+strconv.Itoa(f.Line)+":"+strconv.Itoa(f.Column),
			MaskedMatch(f),
		)
	}
	_ = table.Render()
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	s := Summarize(findings)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d)\n", s.Total, s.Critical, s.High, s.Medium, s.Low)
	if opts.TotalFindings > s.Total {
		fmt.Fprintf(w, "Baselined: %d\n", opts.TotalFindings-s.Total)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
}

// MaskedMatch returns f.Match, masked for the secrets category.
func MaskedMatch(f types.Finding) string {
	if f.Category == "secrets" {
		return maskValue(f.Match)
	}
	return f.Match
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func severityLabel(s types.Severity, noColor bool) string {
	label := fmt.Sprintf("%-8s", s)
	var c *color.Color
	switch s {
	case types.SevCritical:
		c = color.New(color.FgMagenta, color.Bold)
	case types.SevHigh:
		c = color.New(color.FgRed)
	case types.SevMed:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	if noColor {
		c.DisableColor()
	}
	return c.Sprint(label)
}
