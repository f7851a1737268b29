package main

import (
	"fmt"
	"os"

	"github.com/aretw0/protflow/internal/cli"
	"github.com/aretw0/protflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "protflow",
	Short: "protflow tracks poses through multi-stage protein design pipelines",
	Long: `protflow keeps a registry of poses in a work directory, runs design tools
(RosettaScripts, RFdiffusion, configured scripts) against them and merges every
tool's scores back into the registry.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./protflow.yaml or ~/.config/protflow/protflow.yaml)")
	pf.String("work-dir", "", "Work directory of the pipeline")
	pf.String("format", "", "Storage format of score files (json, yaml, csv, msgpack, columnar, sqlite)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("jobstarter", "", "Job backend (local or slurm)")
	pf.Int("max-cores", 0, "Concurrent commands of the local job backend")
}

// loadApp resolves configuration for cmd: defaults, config file, PROTFLOW_*
// environment variables and finally explicitly set flags.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	fs := cmd.Flags()
	cfg, err := config.Load(path,
		config.BindFlag("work_dir", fs.Lookup("work-dir")),
		config.BindFlag("storage_format", fs.Lookup("format")),
		config.BindFlag("log_level", fs.Lookup("log-level")),
		config.BindFlag("jobstarter.kind", fs.Lookup("jobstarter")),
		config.BindFlag("jobstarter.max_cores", fs.Lookup("max-cores")),
	)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, cmd.ErrOrStderr())
}
