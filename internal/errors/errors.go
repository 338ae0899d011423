// Package errors defines the error taxonomy shared by the patch and conflict
// packages. Every error here is fatal for the current run: callers report it
// to the operator and stop, nothing is retried.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-exported so callers only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

var (
	// ErrInvalidRange is returned when a line range falls outside a file.
	ErrInvalidRange = New("invalid line range")
	// ErrUnresolvableConflict means a patch failed but left no conflict markers.
	ErrUnresolvableConflict = New("patch failed without conflict markers")
	// ErrNoPatches means there was nothing to apply.
	ErrNoPatches = New("no patches to apply")
)

// IOError is a file read or write failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ScanError means the tree could not be read during a conflict scan.
type ScanError struct {
	Path string
	Err  error
}

func NewScanError(path string, err error) *ScanError {
	return &ScanError{Path: path, Err: err}
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// SubprocessError is an external tool that failed to launch or exited non-zero.
// ExitCode is -1 when the process never ran to completion.
type SubprocessError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Stdout); out != "" {
		fmt.Fprintf(&b, "\nStdout: %s", out)
	}
	if errOut := strings.TrimSpace(e.Stderr); errOut != "" {
		fmt.Fprintf(&b, "\nStderr: %s", errOut)
	}
	return b.String()
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

// Exited reports whether the tool ran and returned a non-zero status, as
// opposed to failing to start at all.
func (e *SubprocessError) Exited() bool {
	return e.ExitCode > 0
}

// UnresolvableConflictError is returned when a patch fails to apply and the
// target tree holds no conflict markers to resolve.
type UnresolvableConflictError struct {
	Patch  string
	Target string
	Cause  error
}

func (e *UnresolvableConflictError) Error() string {
	return fmt.Sprintf("patch %s failed on %s and left no conflict markers: %v", e.Patch, e.Target, e.Cause)
}

func (e *UnresolvableConflictError) Is(target error) bool {
	return target == ErrUnresolvableConflict
}

func (e *UnresolvableConflictError) Unwrap() error {
	return e.Cause
}
