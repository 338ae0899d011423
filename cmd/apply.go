package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/corpeningc/kpatch/internal/errors"
	"github.com/corpeningc/kpatch/internal/patch"
	"github.com/corpeningc/kpatch/internal/tools"
	"github.com/corpeningc/kpatch/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	patchesDir  string
	pickPatches bool

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

var applyCmd = &cobra.Command{
	Use:   "apply [patch...]",
	Short: "Apply patches to the target tree, resolving conflicts interactively",
	Long: `Apply patches in order. Without arguments every .patch file in the
patch directory for the target is applied, in name order.

When a patch fails, kpatch searches the tree for conflict markers and asks how
to resolve each conflict, then stops. Run apply again to continue: patches
that reverse cleanly are already in the tree and are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(cfg)
		if err != nil {
			return err
		}

		patches := args
		if len(patches) == 0 {
			dir := patchesDir
			if dir == "" {
				dir = cfg.Paths.PatchDirFor(target)
			}
			patches, err = patch.Discover(dir)
			if err != nil {
				return err
			}
		}
		if len(patches) == 0 {
			return errors.ErrNoPatches
		}

		if pickPatches {
			patches, err = ui.SelectPatches(patches)
			if err != nil {
				return err
			}
			if len(patches) == 0 {
				fmt.Println("No patches selected.")
				return nil
			}
		}

		patcher := tools.NewPatchTool(cfg.Tools.Patch, cfg.Patch.Strip, cfg.Patch.Fuzz, cfg.Patch.DryRun, logger)
		o := patch.NewOrchestrator(patcher, newScanner(cfg, logger), newResolver(cfg, logger), cmd.OutOrStdout(), logger)

		report, err := o.Run(cmd.Context(), target, patches)
		if err != nil {
			return err
		}

		if len(report.Skipped) > 0 {
			fmt.Printf("Skipped %d patch(es) already in %s.\n", len(report.Skipped), target)
		}
		if report.Complete() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Applied %d patch(es) to %s.", len(report.Applied), target)))
			return nil
		}

		fmt.Println(warnStyle.Render(fmt.Sprintf("Resolved %d of %d conflict(s) left by %s.",
			report.Resolved, report.Conflicts, report.Conflicted)))
		if len(report.Remaining) > 0 {
			fmt.Printf("%d patch(es) not yet applied. Run apply again to continue.\n", len(report.Remaining))
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVarP(&patchesDir, "patches-dir", "p", "", "directory to take patches from (default is <paths.patches_dir>/<target name>)")
	applyCmd.Flags().BoolVar(&pickPatches, "pick", false, "choose which patches to apply")
	applyCmd.Flags().Bool("dry-run", false, "ask the patch tool to only report what it would do")
	applyCmd.Flags().Int("fuzz", 0, "maximum fuzz factor for the patch tool")
	_ = viper.BindPFlag("patch.dry_run", applyCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("patch.fuzz", applyCmd.Flags().Lookup("fuzz"))
}
