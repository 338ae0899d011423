package cmd

import (
	"fmt"

	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List conflict ranges in the target tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(cfg)
		if err != nil {
			return err
		}

		scanner := newScanner(cfg, logger)
		markers, err := scanner.Scan(cmd.Context(), target)
		if err != nil {
			return err
		}
		conflicts := conflict.Index(markers)

		out := cmd.OutOrStdout()
		if ws, ok := scanner.(*conflict.WalkScanner); ok {
			stats := ws.Stats()
			fmt.Fprintf(out, "Scanned %s files (%s)\n",
				humanize.Comma(int64(stats.Files)), humanize.Bytes(uint64(stats.Bytes)))
		}

		if conflicts.Empty() {
			fmt.Fprintln(out, "No merge conflicts found.")
			return nil
		}

		for _, file := range conflicts.Files() {
			fmt.Fprintln(out, file)
			for _, r := range conflicts.Ranges(file) {
				note := ""
				if r.Degenerate() {
					note = " (unterminated)"
				}
				fmt.Fprintf(out, "  lines %d-%d%s\n", r.Start, r.End, note)
			}
		}
		fmt.Fprintf(out, "%d conflict(s) in %d file(s)\n", conflicts.Len(), len(conflicts.Files()))
		return nil
	},
}
