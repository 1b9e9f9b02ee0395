package knox

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/knoxsec/knox/internal/git"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
)

var reportFormats = []string{"text", "table", "json", "sarif", "markdown", "html"}

func isHumanFormat(format string) bool {
	return format == "text" || format == "table"
}

func buildMeta(root string, out scanOutcome) report.Meta {
	repo, commit, branch := git.RepoMetadata(root)
	return report.Meta{
		ScanID:       uuid.NewString(),
		StartedAt:    out.startedAt,
		Version:      version,
		Root:         absOrSelf(root),
		Repo:         repo,
		Commit:       commit,
		Branch:       branch,
		FilesScanned: out.filesScanned,
		Duration:     out.duration,
	}
}

func writeReport(w io.Writer, format string, findings []types.Finding, meta report.Meta, opts report.PrintOptions) error {
	switch format {
	case "json":
		return report.WriteJSON(w, findings, meta)
	case "sarif":
		if err := report.WriteSARIF(w, findings, meta); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
		return nil
	case "markdown":
		return report.WriteMarkdown(w, findings, meta)
	case "html":
		return report.WriteHTML(w, findings, meta)
	case "text":
		report.PrintText(w, findings, opts)
		return nil
	default:
		report.PrintTable(w, findings, opts)
		return nil
	}
}

// writeReportTo writes to path, or stdout when path is empty.
func writeReportTo(path, format string, findings []types.Finding, meta report.Meta, opts report.PrintOptions) error {
	if path == "" {
		return writeReport(os.Stdout, format, findings, meta, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeReport(f, format, findings, meta, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
