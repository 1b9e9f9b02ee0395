package knox

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/types"
	"github.com/spf13/cobra"
)

const (
	docsBegin = "<!-- BEGIN:KNOX_PATTERNS -->"
	docsEnd   = "<!-- END:KNOX_PATTERNS -->"
)

var flagDocsFile string

// gendocs regenerates the pattern table in a Markdown file between the
// markers <!-- BEGIN:KNOX_PATTERNS --> and <!-- END:KNOX_PATTERNS -->.
func init() {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Regenerate the pattern table in README.md",
		RunE: func(_ *cobra.Command, _ []string) error {
			b, err := os.ReadFile(flagDocsFile)
			if err != nil {
				return err
			}
			out, err := replaceBetweenMarkers(b, patternsMarkdown(patterns.Defaults()))
			if err != nil {
				return fmt.Errorf("%s: %w", flagDocsFile, err)
			}
			return os.WriteFile(flagDocsFile, out, 0o644)
		},
	}
	cmd.Flags().StringVar(&flagDocsFile, "file", "README.md", "Markdown file to update")
	rootCmd.AddCommand(cmd)
}

func patternsMarkdown(ps []types.Pattern) string {
	var out strings.Builder
	out.WriteString("\n| Pattern | Severity | Category | Description |\n|---|---|---|---|\n")
	for _, p := range ps {
		fmt.Fprintf(&out, "| `%s` | %s | %s | %s |\n", p.Name, p.Severity, p.Category, p.Description)
	}
	return out.String()
}

func replaceBetweenMarkers(b []byte, content string) ([]byte, error) {
	i := bytes.Index(b, []byte(docsBegin))
	j := bytes.Index(b, []byte(docsEnd))
	if i < 0 || j < 0 || j <= i {
		return nil, fmt.Errorf("markers not found")
	}
	var nb bytes.Buffer
	nb.Write(b[:i+len(docsBegin)])
	nb.WriteString(content)
	nb.Write(b[j:])
	return nb.Bytes(), nil
}
