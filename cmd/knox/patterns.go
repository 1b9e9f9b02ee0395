package knox

import (
	"fmt"
	"io"
	"os"

	"github.com/knoxsec/knox/internal/patterns"
	"github.com/knoxsec/knox/internal/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagPatternsIDsOnly bool

func init() {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the pattern registry",
		RunE: func(_ *cobra.Command, _ []string) error {
			ps, err := patterns.LoadAll(flagRules)
			if err != nil {
				return err
			}
			if flagPatternsIDsOnly {
				for _, p := range ps {
					fmt.Println(p.Name)
				}
				return nil
			}
			return printPatterns(os.Stdout, ps)
		},
	}
	cmd.Flags().StringSliceVar(&flagRules, "rules", nil, "YAML rule files with extra patterns")
	cmd.Flags().BoolVar(&flagPatternsIDsOnly, "ids", false, "print pattern names only")
	rootCmd.AddCommand(cmd)
}

func printPatterns(w io.Writer, ps []types.Pattern) error {
	table := tablewriter.NewWriter(w)
	table.Header("NAME", "SEVERITY", "CATEGORY", "DESCRIPTION")
	for _, p := range ps {
		if err := table.Append([]string{p.Name, string(p.Severity), p.Category, p.Description}); err != nil {
			return err
		}
	}
	return table.Render()
}
