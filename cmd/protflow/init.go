package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <dir|scorefile|pose...>",
	Short: "Create the pose registry of the work directory",
	Long: `Creates the registry from a directory of poses (filtered by --pattern), a
previously saved score file, or a list of pose files. Multi-record FASTA files
are split into one pose per record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		pattern, _ := cmd.Flags().GetString("pattern")
		p, path, err := app.InitRegistry(args, pattern)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d poses registered in %s\n", p.Len(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("pattern", "*.pdb", "Glob pattern used when the input is a directory")
}
