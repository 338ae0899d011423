package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpeningc/kpatch/internal/errors"
)

// Transform maps the lines of a range to their replacement.
type Transform func(lines []string) []string

// fileContent is a file split on "\n". Carriage returns stay on their lines so
// untouched lines are written back byte for byte.
type fileContent struct {
	lines           []string
	trailingNewline bool
}

func parseContent(data []byte) fileContent {
	if len(data) == 0 {
		return fileContent{}
	}
	text := string(data)
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return fileContent{lines: strings.Split(text, "\n"), trailingNewline: trailing}
}

func (c fileContent) bytes() []byte {
	if len(c.lines) == 0 {
		return nil
	}
	out := strings.Join(c.lines, "\n")
	if c.trailingNewline {
		out += "\n"
	}
	return []byte(out)
}

// ReadLines returns lines start..end (1-based, inclusive) of path.
func ReadLines(path string, start, end int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	content := parseContent(data)
	if err := checkRange(start, end, len(content.lines)); err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	return content.lines[start-1 : end], nil
}

// Rewrite replaces lines start..end (1-based, inclusive) of path with
// transform's output. Lines outside the range are left byte-identical. The
// new content goes to a temporary file that is renamed over the original.
func Rewrite(path string, start, end int, transform Transform) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIOError("read", path, err)
	}
	content := parseContent(data)
	if err := checkRange(start, end, len(content.lines)); err != nil {
		return errors.NewIOError("rewrite", path, err)
	}

	body := make([]string, end-start+1)
	copy(body, content.lines[start-1:end])

	lines := make([]string, 0, len(content.lines))
	lines = append(lines, content.lines[:start-1]...)
	lines = append(lines, transform(body)...)
	lines = append(lines, content.lines[end:]...)

	// A file that ends up empty keeps no trailing newline.
	content.lines = lines
	return writeFile(path, content.bytes())
}

func checkRange(start, end, total int) error {
	if start < 1 || start > end || end > total {
		return fmt.Errorf("%w: %d-%d of %d lines", errors.ErrInvalidRange, start, end, total)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewIOError("stat", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".kpatch-*")
	if err != nil {
		return errors.NewIOError("write", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewIOError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewIOError("write", path, err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		cleanup()
		return errors.NewIOError("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewIOError("rename", path, err)
	}
	return nil
}
