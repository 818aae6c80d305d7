// Package exec abstracts running external commands so packages that shell out
// (the jj adapter, doctor checks) can be driven by canned responses in tests.
package exec

import (
	"bytes"
	"context"
	osexec "os/exec"
)

// CommandExecutor runs external commands.
type CommandExecutor interface {
	// Run executes name with args in dir and returns stdout and stderr separately.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
	// Output executes name with args in dir and returns stdout only.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// LookPath reports where name would be found on PATH.
	LookPath(name string) (string, error)
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

// NewRealExecutor returns an executor backed by os/exec.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Run implements CommandExecutor.
func (e *RealExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Output implements CommandExecutor.
func (e *RealExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, _, err := e.Run(ctx, dir, name, args...)
	return stdout, err
}

// LookPath implements CommandExecutor.
func (e *RealExecutor) LookPath(name string) (string, error) {
	return osexec.LookPath(name)
}
