package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/knoxsec/knox/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// WriteMarkdown writes a Markdown report: header, severity summary and a
// findings table grouped by severity.
func WriteMarkdown(w io.Writer, findings []types.Finding, meta Meta) error {
	sortFindings(findings)
	var b strings.Builder
	b.WriteString("# knox security report\n\n")
	if meta.Root != "" {
		fmt.Fprintf(&b, "- **Target:** `%s`\n", meta.Root)
	}
	if meta.Repo != "" {
		fmt.Fprintf(&b, "- **Repository:** %s @ %s (%s)\n", meta.Repo, shortCommit(meta.Commit), meta.Branch)
	}
	started := meta.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	fmt.Fprintf(&b, "- **Scan date:** %s\n", started.UTC().Format(time.RFC3339))
	if meta.FilesScanned > 0 {
		fmt.Fprintf(&b, "- **Files scanned:** %d\n", meta.FilesScanned)
	}

	s := Summarize(findings)
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Severity | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Critical | %d |\n| High | %d |\n| Medium | %d |\n| Low | %d |\n| **Total** | **%d** |\n",
		s.Critical, s.High, s.Medium, s.Low, s.Total)

	if s.Total == 0 {
		b.WriteString("\nNo issues found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, sev := range []types.Severity{types.SevCritical, types.SevHigh, types.SevMed, types.SevLow} {
		var rows []types.Finding
		for _, f := range findings {
			if f.Severity == sev {
				rows = append(rows, f)
			}
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", strings.ToUpper(string(sev[:1]))+string(sev[1:]))
		b.WriteString("| Location | Pattern | Category | Description | Match |\n|---|---|---|---|---|\n")
		for _, f := range rows {
			fmt.Fprintf(&b, "| `%s:%d` | %s | %s | %s | `%s` |\n",
				mdEscape(f.Path), f.Line, f.Pattern, f.Category, mdEscape(f.Description), mdCode(MaskedMatch(f)))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHTML renders the Markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, findings []types.Finding, meta Meta) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, findings, meta); err != nil {
		return err
	}
	var body bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := gm.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	title := "knox security report"
	if meta.Root != "" {
		title += " - " + meta.Root
	}
	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(title), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, Segoe UI, Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 72rem; color: #24292f; }
table { border-collapse: collapse; margin: 1rem 0; width: 100%%; }
th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f6f8fa; }
code { background: #f6f8fa; padding: 0.1rem 0.3rem; border-radius: 4px; }
</style>
</head>
<body>
%s
</body>
</html>
`

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// mdCode keeps a value inside a single inline code span within a table cell.
func mdCode(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	return mdEscape(s)
}
