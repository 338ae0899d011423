package tools

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/corpeningc/kpatch/internal/errors"
	"go.uber.org/zap"
)

// PatchTool applies unified diffs with GNU patch in merge mode, so failed
// hunks are left in the tree as conflict markers.
type PatchTool struct {
	Binary string
	Strip  int
	Fuzz   int
	DryRun bool

	logger *zap.Logger
}

func NewPatchTool(binary string, strip, fuzz int, dryRun bool, logger *zap.Logger) *PatchTool {
	if binary == "" {
		binary = "patch"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatchTool{Binary: binary, Strip: strip, Fuzz: fuzz, DryRun: dryRun, logger: logger}
}

// Args builds the command line for applying patchFile inside dir.
func (p *PatchTool) Args(patchFile, dir string) []string {
	args := []string{"-N", "-p" + strconv.Itoa(p.Strip), "--merge"}
	if p.Fuzz > 0 {
		args = append(args, "--fuzz="+strconv.Itoa(p.Fuzz))
	}
	if p.DryRun {
		args = append(args, "--dry-run")
	}
	return append(args, "-i", patchFile, "-d", dir)
}

// Apply runs the patch utility. A non-zero exit is returned as a
// *errors.SubprocessError whose Exited method reports true.
func (p *PatchTool) Apply(ctx context.Context, patchFile, dir string) error {
	abs, err := filepath.Abs(patchFile)
	if err != nil {
		return errors.NewIOError("resolve", patchFile, err)
	}

	args := p.Args(abs, dir)
	stdout, err := capture(ctx, "", p.Binary, args...)
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		if line != "" {
			p.logger.Debug("patch output", zap.String("patch", patchFile), zap.String("line", line))
		}
	}
	return err
}

// ReverseArgs builds a dry run of patchFile in reverse. -f keeps patch from
// asking whether to ignore -R when the reverse does not apply.
func (p *PatchTool) ReverseArgs(patchFile, dir string) []string {
	args := []string{"-R", "-f", "-s", "--dry-run", "-p" + strconv.Itoa(p.Strip)}
	if p.Fuzz > 0 {
		args = append(args, "--fuzz="+strconv.Itoa(p.Fuzz))
	}
	return append(args, "-i", patchFile, "-d", dir)
}

// Applied reports whether patchFile is already applied to dir, that is
// whether it reverses cleanly. In merge mode patch does not detect this by
// itself and would write conflict markers for hunks that are already there.
func (p *PatchTool) Applied(ctx context.Context, patchFile, dir string) (bool, error) {
	abs, err := filepath.Abs(patchFile)
	if err != nil {
		return false, errors.NewIOError("resolve", patchFile, err)
	}

	_, err = capture(ctx, "", p.Binary, p.ReverseArgs(abs, dir)...)
	if err == nil {
		return true, nil
	}
	var subErr *errors.SubprocessError
	if errors.As(err, &subErr) && subErr.ExitCode == 1 {
		return false, nil
	}
	return false, err
}
