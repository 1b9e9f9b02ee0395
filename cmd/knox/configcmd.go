package knox

import (
	"fmt"
	"os"

	"github.com/knoxsec/knox/internal/config"
	"github.com/knoxsec/knox/internal/engine"
	"github.com/knoxsec/knox/internal/report"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput          string
	cfgForce           bool
	cfgThreads         int
	cfgMaxFileSize     int64
	cfgMaxDepth        int
	cfgFailOn          string
	cfgNoColor         bool
	cfgDefaultExcludes bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .knox.yml with the given options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxFileSize, "max-file-size", engine.DefaultMaxFileSizeMB, "skip files larger than this many MB")
	initCmd.Flags().IntVar(&cfgMaxDepth, "max-depth", -1, "max directory depth (-1 = unlimited)")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "high", "default fail-on threshold")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", false, "skip vendored, build and generated paths")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	b, err := yaml.Marshal(initialConfig())
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func initialConfig() *config.FileConfig {
	parallel := true
	baseline := report.DefaultBaselineFile
	return &config.FileConfig{
		MaxFileSizeMB:   &cfgMaxFileSize,
		MaxDepth:        &cfgMaxDepth,
		Parallel:        &parallel,
		Threads:         intPtr(cfgThreads),
		DefaultExcludes: &cfgDefaultExcludes,
		FailOn:          &cfgFailOn,
		NoColor:         &cfgNoColor,
		Baseline:        &baseline,
	}
}

func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
