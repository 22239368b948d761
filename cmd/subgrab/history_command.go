package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subgrab/internal/api"
	"subgrab/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent download attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.History(cmd.Context(), limit)
			if err != nil {
				return wrapAPIError(err, ctx.config.API.Bind)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Entries) == 0 {
				fmt.Fprintln(out, "No downloads recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Item", "Track", "Lang", "Result", "Cues"},
				historyRows(resp.Entries),
				5,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Number of entries to show")
	return cmd
}

func historyRows(entries []api.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		when := e.CreatedAt
		if ts, err := time.Parse(time.RFC3339Nano, e.CreatedAt); err == nil {
			when = ts.Local().Format("2006-01-02 15:04:05")
		}
		result := e.Filename
		if e.Outcome != history.OutcomeSuccess {
			result = "failed: " + e.Error
		} else if e.CacheHit {
			result += " (cached)"
		}
		rows = append(rows, []string{when, e.ItemID, e.TrackID, e.Language, result, strconv.Itoa(e.Cues)})
	}
	return rows
}
