package tools

import (
	"context"
	"fmt"
)

// Bat shows a line range with syntax highlighting.
type Bat struct {
	Binary string
	Term   Terminal
}

func NewBat(binary string, term Terminal) *Bat {
	if binary == "" {
		binary = "bat"
	}
	return &Bat{Binary: binary, Term: term}
}

func (b *Bat) Args(path string, start, end int) []string {
	return []string{
		"--color=always",
		"--paging=never",
		"--highlight-line", fmt.Sprintf("%d:%d", start, end),
		"--line-range", fmt.Sprintf("%d:%d", start, end),
		path,
	}
}

func (b *Bat) Show(ctx context.Context, path string, start, end int) error {
	return interactive(ctx, b.Term, b.Binary, b.Args(path, start, end)...)
}
