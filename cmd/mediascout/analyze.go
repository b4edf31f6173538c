package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand() *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Fetch a page and record the media assets it references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFor(cmd)
			if err != nil {
				return err
			}

			run, err := a.discovery.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printRunHeader(out, run)
			printGrouped(out, run.Assets)

			if !export {
				return nil
			}
			assets, err := a.runs.ListAssets(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			path, err := a.exporter.Export(cmd.Context(), run, assets)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nExported to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "also write the run to a Parquet file")
	return cmd
}
