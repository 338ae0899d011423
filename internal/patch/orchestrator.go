// Package patch drives a patch set over a source tree and hands failed
// applications to the conflict resolver.
package patch

import (
	"context"
	"fmt"
	"io"

	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/corpeningc/kpatch/internal/errors"
	"go.uber.org/zap"
)

// Patcher applies one patch file to a directory. A patch that ran but did not
// apply cleanly must be reported as an *errors.SubprocessError for which
// Exited is true; any other error means the patcher itself is broken.
type Patcher interface {
	Apply(ctx context.Context, patchFile, dir string) error
}

// AppliedChecker is implemented by patchers that can tell a patch is already
// in the tree. Such patches are skipped, which lets an interrupted run be
// repeated.
type AppliedChecker interface {
	Applied(ctx context.Context, patchFile, dir string) (bool, error)
}

// ConflictResolver resolves every range of a conflict map.
type ConflictResolver interface {
	ResolveAll(ctx context.Context, m *conflict.Map) (int, error)
}

type State int

const (
	Idle State = iota
	Applying
	Applied
	Conflicted
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applying:
		return "applying"
	case Applied:
		return "applied"
	case Conflicted:
		return "conflicted"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Report summarises a run.
type Report struct {
	Target  string
	Applied []string
	// Skipped holds patches that were already applied.
	Skipped   []string
	Conflicts int
	Resolved  int
	// Conflicted is the patch that stopped the run with conflicts, Failed
	// the one whose application errored out.
	Conflicted string
	Failed     string
	// Remaining holds the patches after the one that stopped the run.
	Remaining []string
}

// Complete reports whether every patch is in the tree.
func (r *Report) Complete() bool {
	return r.Conflicted == "" && r.Failed == ""
}

// Orchestrator applies patches in order and stops at the first one that
// fails, after resolving whatever conflicts it left.
type Orchestrator struct {
	patcher  Patcher
	scanner  conflict.Scanner
	resolver ConflictResolver
	out      io.Writer
	logger   *zap.Logger

	state        State
	onTransition func(from, to State, patch string)
}

func NewOrchestrator(patcher Patcher, scanner conflict.Scanner, resolver ConflictResolver, out io.Writer, logger *zap.Logger) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		patcher:  patcher,
		scanner:  scanner,
		resolver: resolver,
		out:      out,
		logger:   logger,
		state:    Idle,
	}
}

// OnTransition registers a callback invoked on every state change.
func (o *Orchestrator) OnTransition(fn func(from, to State, patch string)) {
	o.onTransition = fn
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(to State, patch string) {
	from := o.state
	o.state = to
	o.logger.Debug("State change",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("patch", patch))
	if o.onTransition != nil {
		o.onTransition(from, to, patch)
	}
}

// Run applies patches to target in the given order. When a patch fails its
// conflicts are resolved and the run stops without retrying. If the patcher
// is an AppliedChecker, patches already in the tree are skipped, so running
// again continues after the patch that stopped the run.
func (o *Orchestrator) Run(ctx context.Context, target string, patches []string) (*Report, error) {
	report := &Report{Target: target}
	o.state = Idle

	if len(patches) == 0 {
		o.transition(Stopped, "")
		return report, errors.ErrNoPatches
	}

	checker, _ := o.patcher.(AppliedChecker)
	for i, p := range patches {
		if err := ctx.Err(); err != nil {
			o.transition(Stopped, p)
			report.Remaining = patches[i:]
			return report, err
		}

		o.transition(Applying, p)

		if checker != nil {
			applied, err := checker.Applied(ctx, p, target)
			if err != nil {
				report.Failed = p
				report.Remaining = patches[i+1:]
				o.transition(Stopped, p)
				o.logger.Error("Could not check patch", zap.String("patch", p), zap.Error(err))
				return report, fmt.Errorf("check %s: %w", p, err)
			}
			if applied {
				report.Skipped = append(report.Skipped, p)
				o.logger.Info("Patch already applied", zap.String("patch", p))
				fmt.Fprintf(o.out, "Skipping %s, already applied\n", p)
				o.transition(Idle, p)
				continue
			}
		}

		fmt.Fprintf(o.out, "Applying %s\n", p)

		err := o.patcher.Apply(ctx, p, target)
		if err == nil {
			o.transition(Applied, p)
			report.Applied = append(report.Applied, p)
			o.logger.Info("Applied patch", zap.String("patch", p))
			fmt.Fprintf(o.out, "Applied %s\n", p)
			o.transition(Idle, p)
			continue
		}

		report.Remaining = patches[i+1:]

		var subErr *errors.SubprocessError
		if !errors.As(err, &subErr) || !subErr.Exited() {
			report.Failed = p
			o.transition(Stopped, p)
			o.logger.Error("Patch tool failed", zap.String("patch", p), zap.Error(err))
			return report, fmt.Errorf("apply %s: %w", p, err)
		}

		o.transition(Conflicted, p)
		report.Conflicted = p
		err = o.handleConflicts(ctx, target, p, err, report)
		o.transition(Stopped, p)
		return report, err
	}

	o.transition(Stopped, "")
	return report, nil
}

func (o *Orchestrator) handleConflicts(ctx context.Context, target, patch string, cause error, report *Report) error {
	o.logger.Warn("Patch did not apply cleanly", zap.String("patch", patch), zap.Error(cause))
	fmt.Fprintf(o.out, "Failed to apply %s. Searching for merge conflicts...\n", patch)

	markers, err := o.scanner.Scan(ctx, target)
	if err != nil {
		return err
	}
	conflicts := conflict.Index(markers)
	report.Conflicts = conflicts.Len()

	if conflicts.Empty() {
		fmt.Fprintln(o.out, "No merge conflicts found.")
		return &errors.UnresolvableConflictError{Patch: patch, Target: target, Cause: cause}
	}

	o.logger.Info("Found conflicts",
		zap.String("patch", patch),
		zap.Int("files", len(conflicts.Files())),
		zap.Int("ranges", conflicts.Len()))
	fmt.Fprintf(o.out, "Found %d conflict(s) in %d file(s)\n", conflicts.Len(), len(conflicts.Files()))

	resolved, err := o.resolver.ResolveAll(ctx, conflicts)
	report.Resolved = resolved
	return err
}
