package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "subgrab",
		Short:         "Capture streaming subtitles through a local proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(
		newDaemonCommand(ctx),
		newStatusCommand(ctx),
		newTracksCommand(ctx),
		newDownloadCommand(ctx),
		newHistoryCommand(ctx),
		newLogsCommand(ctx),
		newConvertCommand(),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}
