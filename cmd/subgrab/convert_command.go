package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"subgrab/internal/fileutil"
	"subgrab/internal/subtitles"
)

func newConvertCommand() *cobra.Command {
	var (
		output          string
		normalizeTiming bool
		noBidiFix       bool
	)
	cmd := &cobra.Command{
		Use:         "convert <input.vtt>",
		Short:       "Convert a WebVTT file to SRT without the daemon",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			target := strings.TrimSpace(output)
			if target == "" {
				if input == "-" {
					target = "-"
				} else {
					target = strings.TrimSuffix(input, filepath.Ext(input)) + ".srt"
				}
			}
			if input != "-" && target != "-" && samePath(input, target) {
				return fmt.Errorf("output %s is the input file; choose a different -o", target)
			}

			var src io.Reader
			if input == "-" {
				src = cmd.InOrStdin()
			} else {
				file, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer file.Close()
				src = file
			}
			raw, err := io.ReadAll(transform.NewReader(src, unicode.UTF8BOM.NewDecoder()))
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			opts := subtitles.DefaultOptions()
			opts.NormalizeTiming = normalizeTiming
			opts.BidiFix = !noBidiFix
			srt := subtitles.ConvertWithOptions(string(raw), opts)

			if target == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), srt)
				return err
			}
			if err := fileutil.WriteFileAtomic(target, []byte(srt), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d cues)\n", target, subtitles.CountCues(srt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: input with .srt, - for stdout)")
	cmd.Flags().BoolVar(&normalizeTiming, "normalize-timing", false, "Rewrite cue ranges as SRT timestamps and drop cue settings")
	cmd.Flags().BoolVar(&noBidiFix, "no-bidi-fix", false, "Keep right-to-left text exactly as delivered")
	return cmd
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
