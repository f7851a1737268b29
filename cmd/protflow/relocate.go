package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var relocateCmd = &cobra.Command{
	Use:   "relocate <dir>",
	Short: "Point every pose at a new directory",
	Long: `Rewrites the poses column to <dir>/<file name>. With --copy the files are
copied there first; otherwise they must already exist in <dir>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		p, err := app.OpenRegistry("")
		if err != nil {
			return err
		}
		copyFiles, _ := cmd.Flags().GetBool("copy")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if err := p.ChangePosesDir(args[0], copyFiles, overwrite); err != nil {
			return err
		}
		path, err := p.SaveScores("", "")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d poses relocated to %s (%s)\n", p.Len(), args[0], path)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Copy the current poses into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		p, err := app.OpenRegistry("")
		if err != nil {
			return err
		}
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if err := p.SavePoses(args[0], overwrite); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d poses written to %s\n", p.Len(), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relocateCmd)
	relocateCmd.Flags().Bool("copy", false, "Copy the pose files into the directory")
	relocateCmd.Flags().Bool("overwrite", false, "Replace files that already exist")

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("overwrite", false, "Replace files that already exist")
}
