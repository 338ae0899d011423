package cmd

import (
	"fmt"

	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve conflict markers already present in the target tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(cfg)
		if err != nil {
			return err
		}

		markers, err := newScanner(cfg, logger).Scan(cmd.Context(), target)
		if err != nil {
			return err
		}
		conflicts := conflict.Index(markers)
		if conflicts.Empty() {
			fmt.Println("No merge conflicts found.")
			return nil
		}

		resolved, err := newResolver(cfg, logger).ResolveAll(cmd.Context(), conflicts)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Resolved %d conflict(s).", resolved)))
		return nil
	},
}
