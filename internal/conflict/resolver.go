package conflict

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"
)

// Prompter asks the operator how to resolve a range.
type Prompter interface {
	ChooseStrategy(r Range) (Strategy, error)
}

// Viewer shows a range of a file to the operator.
type Viewer interface {
	Show(ctx context.Context, path string, start, end int) error
}

// Editor opens a file for manual editing, positioned at line.
type Editor interface {
	Edit(ctx context.Context, path string, line int) error
}

// Resolver presents conflict ranges and applies the chosen strategy.
type Resolver struct {
	prompter Prompter
	viewer   Viewer
	editor   Editor
	out      io.Writer
	logger   *zap.Logger
}

func NewResolver(prompter Prompter, viewer Viewer, editor Editor, out io.Writer, logger *zap.Logger) *Resolver {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		prompter: prompter,
		viewer:   viewer,
		editor:   editor,
		out:      out,
		logger:   logger,
	}
}

// Resolve applies strategy to r. Rewrite errors are returned as is.
func (res *Resolver) Resolve(ctx context.Context, r Range, strategy Strategy) error {
	log := res.logger.With(
		zap.String("file", r.File),
		zap.Int("start", r.Start),
		zap.Int("end", r.End),
		zap.Stringer("strategy", strategy))

	if strategy == EditExternally {
		log.Info("Opening editor")
		if err := res.editor.Edit(ctx, r.File, r.Start); err != nil {
			log.Error("Editor failed", zap.Error(err))
			return err
		}
		fmt.Fprintf(res.out, "Finished editing %s\n", r.File)
		return nil
	}

	err := Rewrite(r.File, r.Start, r.End, func(lines []string) []string {
		return ApplyStrategy(strategy, lines)
	})
	if err != nil {
		log.Error("Rewrite failed", zap.Error(err))
		return err
	}
	log.Info("Resolved conflict")

	switch strategy {
	case AcceptIncoming:
		fmt.Fprintf(res.out, "Accepted incoming changes for %s\n", r.File)
	case KeepCurrent:
		fmt.Fprintf(res.out, "Kept current changes for %s\n", r.File)
	case AcceptBoth:
		fmt.Fprintf(res.out, "Merged both changes for %s\n", r.File)
	}
	return nil
}

// ResolveAll walks every range of m with the operator and returns how many
// were handled. Files go in map order. Within a file ranges go from the
// bottom up so a rewrite never shifts a range that is still pending.
func (res *Resolver) ResolveAll(ctx context.Context, m *Map) (int, error) {
	resolved := 0
	for _, file := range m.Files() {
		fmt.Fprintf(res.out, "Found conflict in file: %s\n", file)

		pending := m.Ranges(file)
		for len(pending) > 0 {
			if err := ctx.Err(); err != nil {
				return resolved, err
			}

			r := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			strategy, err := res.present(ctx, r)
			if err != nil {
				return resolved, err
			}
			if err := res.Resolve(ctx, r, strategy); err != nil {
				return resolved, err
			}
			resolved++

			if strategy == EditExternally {
				pending, err = rangesAbove(file, r.Start)
				if err != nil {
					return resolved, err
				}
			}
		}
	}
	return resolved, nil
}

func (res *Resolver) present(ctx context.Context, r Range) (Strategy, error) {
	fmt.Fprintf(res.out, "Conflict between lines %d and %d:\n", r.Start, r.End)
	if r.Degenerate() {
		fmt.Fprintf(res.out, "(no end marker found for the conflict at line %d)\n", r.Start)
	}

	if res.viewer != nil {
		if err := res.viewer.Show(ctx, r.File, r.Start, r.End); err != nil {
			res.logger.Warn("Could not display conflict",
				zap.String("file", r.File),
				zap.Error(err))
		}
	}

	return res.prompter.ChooseStrategy(r)
}

// rangesAbove re-reads file after a manual edit and keeps the ranges that
// start before line, in ascending order.
func rangesAbove(file string, line int) ([]Range, error) {
	markers, err := ScanFile(file)
	if err != nil {
		return nil, err
	}
	ranges := Index(markers).Ranges(file)
	return slices.DeleteFunc(ranges, func(r Range) bool {
		return r.Start >= line
	}), nil
}
