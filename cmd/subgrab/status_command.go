package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subgrab/internal/api"
	"subgrab/internal/apiclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			status, err := client.Status(cmd.Context())
			if err != nil {
				if !apiclient.IsAPIUnavailable(err) {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.DaemonStatus{Running: false})
				}
				fmt.Fprintln(out, statusLine("Daemon", statusError, "Not running", colorize))
				return nil
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			for _, line := range statusLines(status, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func statusLines(s api.DaemonStatus, colorize bool) []string {
	lines := []string{
		statusLine("Daemon", statusOK, "Running (pid "+strconv.Itoa(s.PID)+")", colorize),
		statusLine("Proxy", statusInfo, s.ProxyAddress+" -> "+s.Upstream, colorize),
		statusLine("API", statusInfo, s.APIAddress, colorize),
	}
	if s.CurrentItem != "" {
		lines = append(lines, statusLine("Playing", statusOK, s.CurrentItem, colorize))
	} else {
		lines = append(lines, statusLine("Playing", statusWarn, "nothing detected", colorize))
	}
	if s.SelectedTrack != "" {
		lines = append(lines, statusLine("Selected track", statusInfo, s.SelectedTrack, colorize))
	}
	lines = append(lines,
		statusLine("Track listings", statusInfo, fmt.Sprintf("%d items, %d cached files", s.KnownItems, s.CachedBlobs), colorize),
		statusLine("Listeners", statusInfo, strconv.Itoa(s.Subscribers), colorize),
	)
	if s.HistoryDBPath != "" {
		lines = append(lines, statusLine("History", statusInfo, s.HistoryDBPath, colorize))
	} else {
		lines = append(lines, statusLine("History", statusWarn, "disabled", colorize))
	}
	lines = append(lines, statusLine("Log file", statusInfo, s.LogPath, colorize))
	for _, check := range s.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, statusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}
