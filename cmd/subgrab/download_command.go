package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <track-id>",
		Short: "Convert a track of the playing item to SRT and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Download(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return wrapAPIError(err, ctx.config.API.Bind)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			target := resp.Path
			if target == "" {
				target = resp.Filename
			}
			source := "fetched"
			if resp.CacheHit {
				source = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d cues, %s)\n", target, resp.Cues, source)
			return nil
		},
	}
}
