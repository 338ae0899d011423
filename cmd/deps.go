package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corpeningc/kpatch/internal/config"
	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/corpeningc/kpatch/internal/tools"
	"github.com/corpeningc/kpatch/internal/ui"
	"go.uber.org/zap"
)

func newScanner(c *config.Config, l *zap.Logger) conflict.Scanner {
	backend := strings.ToLower(c.Scan.Backend)
	useSearch := backend == config.BackendRipgrep ||
		(backend == config.BackendAuto && tools.Available(c.Tools.Search))

	if useSearch {
		l.Debug("Using search tool for scans", zap.String("tool", c.Tools.Search))
		return conflict.NewSearchScanner(tools.NewRipgrep(c.Tools.Search, c.Scan.Exclude), l)
	}
	return conflict.NewWalkScanner(c.Scan.Workers, c.Scan.Exclude, l)
}

func newViewer(c *config.Config, l *zap.Logger) conflict.Viewer {
	if c.Tools.Pager == config.PagerBuiltin || !tools.Available(c.Tools.Pager) {
		l.Debug("Using built-in conflict viewer", zap.String("pager", c.Tools.Pager))
		return ui.RangeViewer{}
	}
	return tools.NewBat(c.Tools.Pager, tools.StdTerminal())
}

func newResolver(c *config.Config, l *zap.Logger) *conflict.Resolver {
	return conflict.NewResolver(
		ui.StrategyPrompter{},
		newViewer(c, l),
		tools.NewEditor(c.Tools.Editor, tools.StdTerminal()),
		os.Stdout,
		l,
	)
}

// resolveTarget returns the --target flag, or asks the operator to pick a
// tree from the kernels directory.
func resolveTarget(c *config.Config) (string, error) {
	if targetDir != "" {
		info, err := os.Stat(targetDir)
		if err != nil {
			return "", fmt.Errorf("target %s: %w", targetDir, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("target %s is not a directory", targetDir)
		}
		return targetDir, nil
	}

	trees, err := listTrees(c.Paths.KernelsDir)
	if err != nil {
		return "", err
	}
	if len(trees) == 0 {
		return "", fmt.Errorf("no target given and no source trees found in %s", c.Paths.KernelsDir)
	}
	return ui.SelectTarget(trees)
}

func listTrees(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var trees []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			trees = append(trees, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(trees)
	return trees, nil
}
