package main

import (
	"fmt"

	"github.com/aretw0/protflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of protflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "protflow version %s\n", protflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
