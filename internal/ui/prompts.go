package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/corpeningc/kpatch/internal/conflict"
)

// StrategyPrompter asks the operator to pick a resolution strategy.
type StrategyPrompter struct{}

func strategyOptions() []huh.Option[conflict.Strategy] {
	var options []huh.Option[conflict.Strategy]
	for _, s := range conflict.Strategies() {
		options = append(options, huh.NewOption(s.String(), s))
	}
	return options
}

func (StrategyPrompter) ChooseStrategy(r conflict.Range) (conflict.Strategy, error) {
	choice := conflict.AcceptIncoming

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[conflict.Strategy]().
				Title("Choose an option for resolving conflict").
				Description(fmt.Sprintf("%s lines %d-%d", r.File, r.Start, r.End)).
				Options(strategyOptions()...).
				Value(&choice),
		),
	)

	if err := form.Run(); err != nil {
		return choice, err
	}
	return choice, nil
}

// SelectTarget asks which source tree to patch.
func SelectTarget(trees []string) (string, error) {
	var selected string
	var options []huh.Option[string]

	for _, tree := range trees {
		options = append(options, huh.NewOption(filepath.Base(tree), tree))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a kernel to patch").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// SelectPatches lets the operator choose which patches to apply. Order of
// the result follows the input order.
func SelectPatches(patches []string) ([]string, error) {
	var selected []string
	var options []huh.Option[string]

	for _, p := range patches {
		options = append(options, huh.NewOption(filepath.Base(p), p).Selected(true))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select patches to apply:").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}
	return keepOrder(patches, selected), nil
}

func keepOrder(all, selected []string) []string {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	var ordered []string
	for _, p := range all {
		if chosen[p] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
