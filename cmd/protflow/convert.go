package main

import (
	"fmt"

	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a score file between storage formats",
	Long:  `Formats are inferred from the file suffixes unless --to is given.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := persistence.Load(args[0])
		if err != nil {
			return err
		}
		to, _ := cmd.Flags().GetString("to")
		if err := persistence.Save(args[1], to, t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", t.Len(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("to", "", "Target format name")
}
