package knox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/knoxsec/knox/internal/audit"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show scans recorded with scan --audit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			l := audit.New(historyRoot(root))
			recs, err := l.History()
			if errors.Is(err, os.ErrNotExist) {
				fmt.Println("No scan history. Run knox scan --audit to record scans.")
				return nil
			}
			if err != nil {
				return err
			}
			if flagHistoryLimit > 0 && len(recs) > flagHistoryLimit {
				recs = recs[:flagHistoryLimit]
			}
			return printHistory(os.Stdout, recs)
		},
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many scans (0 = all)")
	rootCmd.AddCommand(cmd)
}

func printHistory(w io.Writer, recs []audit.Record) error {
	table := tablewriter.NewWriter(w)
	table.Header("DATE", "SCAN", "FILES", "TOTAL", "NEW", "CRIT", "HIGH", "MED", "LOW", "DURATION")
	for _, r := range recs {
		id := r.ScanID
		if len(id) > 8 {
			id = id[:8]
		}
		row := []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			id,
			strconv.Itoa(r.FilesScanned),
			strconv.Itoa(r.Summary.Total),
			strconv.Itoa(r.NewFindings),
			strconv.Itoa(r.Summary.Critical),
			strconv.Itoa(r.Summary.High),
			strconv.Itoa(r.Summary.Medium),
			strconv.Itoa(r.Summary.Low),
			r.Duration,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
