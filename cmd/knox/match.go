package knox

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/matcher"
	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/report"
	"github.com/knoxsec/knox/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagMatchText    string
	flagMatchPattern string
)

func init() {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run the matcher against provided text (--text or stdin)",
		RunE: func(_ *cobra.Command, _ []string) error {
			text := flagMatchText
			if text == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = string(data)
			}
			ps, err := patterns.LoadAll(flagRules)
			if err != nil {
				return err
			}
			fs, err := matchText(text, ps, flagMatchPattern)
			if err != nil {
				return err
			}
			report.PrintTable(os.Stdout, fs, report.PrintOptions{NoColor: flagNoColor})
			return nil
		},
	}
	cmd.Flags().StringVar(&flagMatchText, "text", "", "text to match (default: read stdin)")
	cmd.Flags().StringVar(&flagMatchPattern, "pattern", "", "only run this pattern")
	cmd.Flags().StringSliceVar(&flagRules, "rules", nil, "YAML rule files with extra patterns")
	cmd.Long = "Available patterns: " + strings.Join(patterns.IDs(), ", ")
	rootCmd.AddCommand(cmd)
}

// matchText runs ps, or only the pattern named only, over text and returns
// the matches as findings on the pseudo path "stdin".
func matchText(text string, ps []types.Pattern, only string) ([]types.Finding, error) {
	if only != "" {
		var sel []types.Pattern
		var names []string
		for _, p := range ps {
			names = append(names, p.Name)
			if p.Name == only {
				sel = append(sel, p)
			}
		}
		if len(sel) == 0 {
			return nil, fmt.Errorf("unknown pattern %q (available: %s)", only, strings.Join(names, ", "))
		}
		ps = sel
	}
	m := matcher.NewWithPatterns(ps...)
	res := types.ScanResult{FilePath: "stdin", Matches: m.MatchContent(text)}
	return engine.Findings([]types.ScanResult{res}, ps), nil
}
