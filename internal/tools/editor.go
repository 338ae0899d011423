package tools

import (
	"context"
	"os"
	"strconv"
	"strings"
)

// Editor opens files in a terminal editor that understands "+line".
type Editor struct {
	Command []string
	Term    Terminal
}

// NewEditor picks the configured editor, then $VISUAL, then $EDITOR, and
// finally nano. The command may carry its own arguments.
func NewEditor(configured string, term Terminal) *Editor {
	command := configured
	for _, candidate := range []string{os.Getenv("VISUAL"), os.Getenv("EDITOR"), "nano"} {
		if strings.TrimSpace(command) != "" {
			break
		}
		command = candidate
	}
	return &Editor{Command: strings.Fields(command), Term: term}
}

func (e *Editor) Args(path string, line int) []string {
	args := append([]string{}, e.Command[1:]...)
	if line > 0 {
		args = append(args, "+"+strconv.Itoa(line))
	}
	return append(args, path)
}

func (e *Editor) Edit(ctx context.Context, path string, line int) error {
	return interactive(ctx, e.Term, e.Command[0], e.Args(path, line)...)
}
