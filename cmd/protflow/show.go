package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [scorefile]",
	Short: "Print the pose registry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		p, err := app.OpenRegistry(path)
		if err != nil {
			return err
		}

		t := p.Table()
		if cols, _ := cmd.Flags().GetStringSlice("columns"); len(cols) > 0 {
			t, err = project(t, cols)
			if err != nil {
				return err
			}
		}

		output, _ := cmd.Flags().GetString("output")
		codec, err := codecFor(output)
		if err != nil {
			return err
		}
		data, err := codec.Marshal(t)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func codecFor(name string) (persistence.Codec, error) {
	switch strings.ToLower(name) {
	case "yaml", "":
		return persistence.YAML{}, nil
	case "json":
		return persistence.JSON{}, nil
	case "csv":
		return persistence.CSV{}, nil
	}
	return nil, fmt.Errorf("%w: output %q (yaml, json, csv)", domain.ErrUnknownFormat, name)
}

func project(t *domain.Table, cols []string) (*domain.Table, error) {
	if missing := t.MissingColumns(cols...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown columns %v", domain.ErrNotFound, missing)
	}
	out := domain.NewTable(cols...)
	for i := 0; i < t.Len(); i++ {
		row := domain.Row{}
		for _, c := range cols {
			row[c] = t.Get(i, c)
		}
		out.AppendRow(row)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("output", "o", "yaml", "Output format (yaml, json, csv)")
	showCmd.Flags().StringSlice("columns", nil, "Only print these columns")
}
