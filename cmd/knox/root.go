package knox

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/knoxsec/knox/internal/config"
	"github.com/knoxsec/knox/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagNoColor  bool
	flagLogLevel string
	flagLogFile  string

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the knox CLI.
var rootCmd = &cobra.Command{
	Use:           "knox",
	Short:         "Find security issues in source trees",
	Long:          "knox scans source files for hardcoded secrets, injection risks, weak crypto and other insecure patterns.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		var level *string
		if g, err := config.LoadGlobal(); err == nil {
			level = g.LogLevel
		}
		logging.Init(pick(cmd.Flags().Changed("log-level"), flagLogLevel, nil, level), flagLogFile)
	},
}

// Execute runs the knox CLI. It should be called by the main package.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default warn)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append logs to this file instead of stderr")
}
