package tools

import (
	"bufio"
	"context"
	"strings"

	"github.com/corpeningc/kpatch/internal/errors"
)

// Ripgrep searches a tree with rg. Output is sorted by path so markers come
// back in a stable walk order. Hidden and ignored files are searched like any
// other file; only directories named in Exclude are skipped.
type Ripgrep struct {
	Binary  string
	Exclude []string
}

func NewRipgrep(binary string, exclude []string) *Ripgrep {
	if binary == "" {
		binary = "rg"
	}
	return &Ripgrep{Binary: binary, Exclude: exclude}
}

// Args leaves out --no-messages: an unreadable file fails the search.
func (r *Ripgrep) Args(root string, patterns []string) []string {
	args := []string{
		"--line-number", "--with-filename", "--no-heading", "--color=never",
		"--hidden", "--no-ignore", "--sort", "path",
	}
	for _, name := range r.Exclude {
		args = append(args, "--glob", "!"+name+"/")
	}
	for _, p := range patterns {
		args = append(args, "-e", p)
	}
	return append(args, "--", root)
}

// Search returns "path:line:text" lines. rg exits 1 when nothing matched,
// which is reported as an empty result.
func (r *Ripgrep) Search(ctx context.Context, root string, patterns []string) ([]string, error) {
	stdout, err := capture(ctx, "", r.Binary, r.Args(root, patterns)...)
	if err != nil {
		var subErr *errors.SubprocessError
		if errors.As(err, &subErr) && subErr.ExitCode == 1 && strings.TrimSpace(subErr.Stderr) == "" {
			return nil, nil
		}
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
