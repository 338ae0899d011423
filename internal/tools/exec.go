// Package tools wraps the external programs kpatch drives: the patch
// utility, a recursive search tool, a highlighting pager and a text editor.
package tools

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/corpeningc/kpatch/internal/errors"
)

// commandError turns a failed exec into a SubprocessError carrying the
// captured output.
func commandError(tool string, args []string, err error, stdout, stderr bytes.Buffer) error {
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &errors.SubprocessError{
		Tool:     tool,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// capture runs the command and collects its output.
func capture(ctx context.Context, dir, tool string, args ...string) (bytes.Buffer, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout, commandError(tool, args, err, stdout, stderr)
}

// Terminal is the operator's terminal. Interactive tools inherit it.
type Terminal struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdTerminal is the process's own stdio.
func StdTerminal() Terminal {
	return Terminal{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// interactive runs a command attached to the terminal. Only stderr is
// captured (and still echoed) for error reporting.
func interactive(ctx context.Context, term Terminal, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Env = os.Environ()
	cmd.Stdin = term.Stdin
	cmd.Stdout = term.Stdout

	var stdout, stderr bytes.Buffer
	if term.Stderr != nil {
		cmd.Stderr = io.MultiWriter(term.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	return commandError(tool, args, err, stdout, stderr)
}

// Available reports whether tool can be found on PATH.
func Available(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}
