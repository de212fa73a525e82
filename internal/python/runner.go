package python

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const shutdownGracePeriod = 10 * time.Second

// Command describes one child process. Args never pass through a shell.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Env is the complete child environment. Nil inherits the parent's.
	Env []string

	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner provides an abstraction over process execution for testability
type Runner interface {
	// Run starts the command and waits for it to finish.
	Run(ctx context.Context, cmd Command) error

	// Output runs the command and returns its trimmed standard output.
	Output(ctx context.Context, cmd Command) (string, error)

	// LookPath searches PATH for an executable.
	LookPath(file string) (string, error)
}

// OSRunner implements Runner using os/exec
type OSRunner struct{}

// NewOSRunner creates a new OSRunner
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

func (r *OSRunner) Run(ctx context.Context, cmd Command) error {
	c := r.command(ctx, cmd)
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

func (r *OSRunner) Output(ctx context.Context, cmd Command) (string, error) {
	c := r.command(ctx, cmd)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("%s: %w: %s", cmd.Name, err, errMsg)
		}
		return "", fmt.Errorf("%s: %w", cmd.Name, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (r *OSRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *OSRunner) command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	// Interrupt on cancel; the child is killed after the grace period.
	c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
	c.WaitDelay = shutdownGracePeriod
	return c
}

// ExitCode extracts the child exit status from err, or -1 if there is none.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
