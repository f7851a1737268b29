package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/protflow/internal/cli"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		reg, err := cli.NewRunners(app.Config, app.Logger)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range reg.Names() {
			desc, _ := reg.Describe(name)
			fmt.Fprintf(w, "%s\t%s\n", name, desc)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
