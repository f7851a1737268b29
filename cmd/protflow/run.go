package main

import (
	"context"
	"fmt"

	"github.com/aretw0/protflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <tool>",
	Short: "Run a tool on every pose and merge its scores",
	Long: `Runs one stage: the tool is executed for every pose of the registry through
the configured job backend, its outputs become the new poses and its scores are
added as <prefix>_<column>. Rerunning a finished stage reuses its score file
unless --overwrite is set.

Tool arguments are passed with --set, e.g.
  protflow run rosettascripts --set protocol=relax.xml --set nstruct=5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		toolArgs, err := cli.ParseArgs(sets)
		if err != nil {
			return err
		}
		prefix, _ := cmd.Flags().GetString("prefix")
		opts, _ := cmd.Flags().GetString("options")
		column, _ := cmd.Flags().GetString("pose-options")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		registry, _ := cmd.Flags().GetString("registry")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		out, err := app.RunStage(ctx, cli.StageOptions{
			Tool:              args[0],
			Prefix:            prefix,
			Args:              toolArgs,
			Options:           opts,
			PoseOptionsColumn: column,
			Overwrite:         overwrite,
			Registry:          registry,
		})
		if sig := ctx.Signal(); sig != nil && err != nil {
			return fmt.Errorf("interrupted by %s: %w", sig, err)
		}
		if err != nil {
			return err
		}

		status := "merged"
		if out.Resumed() {
			status = "resumed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d results %s under prefix %q", args[0], out.Len(), status, out.Prefix())
		if out.Discarded() > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " (%d malformed rows discarded)", out.Discarded())
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("prefix", "", "Column prefix and stage directory (default: tool name)")
	runCmd.Flags().String("options", "", "Generic options passed to the tool for every pose")
	runCmd.Flags().String("pose-options", "", "Registry column holding per-pose options")
	runCmd.Flags().StringArray("set", nil, "Tool argument as key=value (repeatable)")
	runCmd.Flags().Bool("overwrite", false, "Discard results of a previous run of this stage")
	runCmd.Flags().String("registry", "", "Score file to use instead of the work directory registry")
}
