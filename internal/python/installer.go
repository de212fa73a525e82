package python

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"go.uber.org/zap"
)

// AirflowPackage is the pip distribution being installed.
const AirflowPackage = "apache-airflow"

// Installer installs Airflow into a virtual environment
type Installer struct {
	fs       filesystem.FileSystem
	runner   Runner
	platform Platform
	logger   *zap.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// NewInstaller creates a new Installer
func NewInstaller(fs filesystem.FileSystem, runner Runner, platform Platform, logger *zap.Logger, stdout, stderr io.Writer) *Installer {
	return &Installer{
		fs:       fs,
		runner:   runner,
		platform: platform,
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
	}
}

// InstallOptions describes one pinned install.
type InstallOptions struct {
	Version        string
	VenvPath       string
	ConstraintsURL string

	// Extras is a comma separated extras list, with or without brackets.
	Extras string

	// Requirements is an optional requirements file installed in the same pip run.
	Requirements string
}

// InstallResult reports what Install did.
type InstallResult struct {
	Skipped         bool
	PreviousVersion string
}

// InstalledVersion runs "python -m airflow version" inside the environment.
// It returns false when Airflow is not importable.
func (i *Installer) InstalledVersion(ctx context.Context, venvPath string) (string, bool) {
	interpreter := i.platform.Interpreter(venvPath)
	if !i.fs.Exists(interpreter) {
		return "", false
	}

	out, err := i.runner.Output(ctx, Command{
		Name: interpreter,
		Args: []string{"-m", "airflow", "version"},
	})
	if err != nil {
		i.logger.Debug("airflow not importable", zap.String("venv", venvPath), zap.Error(err))
		return "", false
	}

	return lastLine(out), true
}

// Install installs the pinned Airflow version unless it is already present.
func (i *Installer) Install(ctx context.Context, opts InstallOptions) (*InstallResult, error) {
	result := &InstallResult{}

	if installed, ok := i.InstalledVersion(ctx, opts.VenvPath); ok {
		if installed == opts.Version {
			_, _ = fmt.Fprintf(i.stdout, "Apache Airflow %s is already installed. Skipping installation.\n", opts.Version)
			result.Skipped = true
			result.PreviousVersion = installed
			return result, nil
		}
		i.logger.Warn("installed Airflow version differs, reinstalling",
			zap.String("installed", installed),
			zap.String("requested", opts.Version))
		result.PreviousVersion = installed
	}

	interpreter := i.platform.Interpreter(opts.VenvPath)
	if !i.fs.Exists(interpreter) {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidVenv, opts.VenvPath)
	}

	for _, args := range i.pipCommands(opts) {
		cmd := Command{
			Name:   interpreter,
			Args:   args,
			Stdout: i.stdout,
			Stderr: i.stderr,
		}
		i.logger.Debug("running pip", zap.Stringer("command", cmd))
		if err := i.runner.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInstallFailed, err)
		}
	}

	return result, nil
}

func (i *Installer) pipCommands(opts InstallOptions) [][]string {
	upgrade := []string{"-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"}

	install := []string{
		"-m", "pip", "install",
		Requirement(opts.Version, opts.Extras),
		"--constraint", opts.ConstraintsURL,
	}
	if opts.Requirements != "" {
		install = append(install, "-r", opts.Requirements)
	}

	return [][]string{upgrade, install}
}

// Requirement renders the pip requirement specifier, e.g.
// apache-airflow[postgres,celery]==2.7.0.
func Requirement(version, extras string) string {
	extras = strings.TrimSpace(extras)
	extras = strings.TrimPrefix(extras, "[")
	extras = strings.TrimSuffix(extras, "]")

	var parts []string
	for _, e := range strings.Split(extras, ",") {
		if e = strings.TrimSpace(e); e != "" {
			parts = append(parts, e)
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s==%s", AirflowPackage, version)
	}
	return fmt.Sprintf("%s[%s]==%s", AirflowPackage, strings.Join(parts, ","), version)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
