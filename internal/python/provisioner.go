package python

import (
	"context"
	"fmt"
	"io"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"go.uber.org/zap"
)

// DefaultPythonVersion is assumed when no host interpreter can be asked.
const DefaultPythonVersion = "3.11"

// Provisioner creates and validates virtual environments
type Provisioner struct {
	fs       filesystem.FileSystem
	runner   Runner
	platform Platform
	logger   *zap.Logger
	out      io.Writer
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(fs filesystem.FileSystem, runner Runner, platform Platform, logger *zap.Logger, out io.Writer) *Provisioner {
	return &Provisioner{
		fs:       fs,
		runner:   runner,
		platform: platform,
		logger:   logger,
		out:      out,
	}
}

// EnsureOptions controls Ensure.
type EnsureOptions struct {
	Path          string
	Recreate      bool
	PythonVersion string
}

// Ensure returns the absolute path of a usable virtual environment.
//
// An existing directory without an interpreter is rejected with
// ErrInvalidVenv unless Recreate is set, in which case it is removed first.
func (p *Provisioner) Ensure(ctx context.Context, opts EnsureOptions) (string, error) {
	venvPath, err := filesystem.Abs(p.fs, opts.Path)
	if err != nil {
		return "", err
	}

	if opts.Recreate && p.fs.Exists(venvPath) {
		_, _ = fmt.Fprintf(p.out, "Recreating virtual environment at %s\n", venvPath)
		if err := p.fs.RemoveAll(venvPath); err != nil {
			return "", fmt.Errorf("failed to remove %s: %w", venvPath, err)
		}
	}

	if p.fs.Exists(venvPath) {
		if !p.IsValid(venvPath) {
			return "", fmt.Errorf("%w: %s", models.ErrInvalidVenv, venvPath)
		}
		p.logger.Debug("reusing virtual environment", zap.String("path", venvPath))
		return venvPath, nil
	}

	host, err := HostInterpreter(p.runner, opts.PythonVersion)
	if err != nil {
		return "", err
	}

	cmd := Command{
		Name:   host,
		Args:   []string{"-m", "venv", venvPath},
		Stdout: p.out,
		Stderr: p.out,
	}
	p.logger.Debug("creating virtual environment", zap.Stringer("command", cmd))
	if err := p.runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to create virtual environment at %s: %w", venvPath, err)
	}

	if !p.IsValid(venvPath) {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidVenv, venvPath)
	}

	_, _ = fmt.Fprintf(p.out, "Virtual environment created at %s\n", venvPath)
	return venvPath, nil
}

// IsValid reports whether venvPath contains an interpreter.
func (p *Provisioner) IsValid(venvPath string) bool {
	return p.fs.Exists(p.platform.Interpreter(venvPath))
}

// HostInterpreter finds a python on PATH, preferring python<version>.
func HostInterpreter(runner Runner, version string) (string, error) {
	candidates := []string{"python3", "python"}
	if version != "" {
		candidates = append([]string{"python" + version}, candidates...)
	}

	for _, name := range candidates {
		if path, err := runner.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", models.ErrPythonNotFound
}

// HostVersion asks the host interpreter for its major.minor version.
func HostVersion(ctx context.Context, runner Runner) (string, error) {
	host, err := HostInterpreter(runner, "")
	if err != nil {
		return "", err
	}

	out, err := runner.Output(ctx, Command{
		Name: host,
		Args: []string{"-c", "import sys; print('%d.%d' % sys.version_info[:2])"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to query python version: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("python reported an empty version")
	}

	return out, nil
}
