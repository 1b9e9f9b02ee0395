package knox

import (
	"fmt"
	"os"

	"github.com/knoxsec/knox/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [path]",
		Short: "Record all current findings in the baseline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			st := resolveSettings(cmd, root)
			out, err := executeScan(cmd.Context(), st)
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(st.baseline, out.findings); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Baseline updated: %d findings recorded in %s\n", len(out.findings), st.baseline)
			return nil
		},
	}
	addScanFlags(update)

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
