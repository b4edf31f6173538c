package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write a run's assets to a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFor(cmd)
			if err != nil {
				return err
			}

			run, err := a.runs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			assets, err := a.runs.ListAssets(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			path, err := a.exporter.Export(cmd.Context(), run, assets)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
