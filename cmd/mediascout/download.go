package main

import (
	"fmt"
	"strconv"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/spf13/cobra"
)

func newDownloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download <asset-id>",
		Short: "Download one asset into the download storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewValidationError("asset-id", args[0], "must be an integer")
			}

			a, err := appFor(cmd)
			if err != nil {
				return err
			}

			location, err := a.downloader.DownloadByID(cmd.Context(), assetID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
}

func newBundleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <run-id>",
		Short: "Pack every downloadable asset of a run into a ZIP archive",
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

			location, err := a.downloader.Bundle(cmd.Context(), run, assets)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
}
