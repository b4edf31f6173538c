package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/mediascout/internal/config"
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the --config flag.
	cfgFile string

	// current is built lazily by the first subcommand that needs it.
	current *app
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediascout",
		Short: "Discover and download the media assets of a web page",
		Long: `mediascout fetches a page, finds every image, video, audio file and document
it references, and records them so they can be downloaded or bundled later.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to the YAML/JSON config file (default: $"+config.ConfigPathEnvVar+", ./config.yaml)",
	)

	rootCmd.AddCommand(
		newAnalyzeCommand(),
		newRunsCommand(),
		newShowCommand(),
		newDownloadCommand(),
		newBundleCommand(),
		newExportCommand(),
	)
	return rootCmd
}

// Execute runs the CLI until the command finishes or SIGINT/SIGTERM arrives.
func Execute() error {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if current != nil {
		current.Close()
	}
	return err
}

// appFor returns the shared application, building it on first use.
func appFor(cmd *cobra.Command) (*app, error) {
	if current != nil {
		return current, nil
	}
	a, err := newApp(cmd.Context(), cfgFile)
	if err != nil {
		return nil, err
	}
	current = a
	return a, nil
}
