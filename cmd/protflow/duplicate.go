package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <n>",
	Short: "Copy every pose n times into a directory",
	Long: `Writes n copies of each pose as <description>_0001 ... <description>_000n into
--dir and replaces the registry with the copies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid copy count %q: %w", args[0], err)
		}
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		p, err := app.OpenRegistry("")
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if err := p.DuplicatePoses(dir, n); err != nil {
			return err
		}
		path, err := p.SaveScores("", "")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d poses registered in %s\n", p.Len(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
	duplicateCmd.Flags().String("dir", "duplicates", "Directory receiving the copies")
}
