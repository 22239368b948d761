package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"subgrab/internal/apiclient"
	"subgrab/internal/events"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List subtitle tracks of the playing item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Tracks(cmd.Context())
			if err != nil {
				var se *apiclient.StatusError
				if errors.As(err, &se) && se.Status == http.StatusNotFound {
					fmt.Fprintln(cmd.OutOrStdout(), events.NoTracksMessage)
					return nil
				}
				return wrapAPIError(err, ctx.config.API.Bind)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}

			rows := make([][]string, 0, len(resp.Tracks))
			for _, t := range resp.Tracks {
				marker := ""
				if t.SelectedForReply {
					marker = "*"
				}
				rows = append(rows, []string{marker, t.ID, t.Language, t.LanguageName, yesNo(t.ClosedCaptions), yesNo(t.Downloaded)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item %s\n", resp.ItemID)
			fmt.Fprintln(out, renderTable([]string{"", "Track", "Lang", "Name", "CC", "Cached"}, rows))
			return nil
		},
	}
}
