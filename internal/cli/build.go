package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jakoblorz/airflowctl/internal/constraints"
	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"github.com/jakoblorz/airflowctl/internal/project"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/jakoblorz/airflowctl/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// BuildCommand handles the build command
type BuildCommand struct {
	fs      filesystem.FileSystem
	runner  python.Runner
	checker constraints.Checker
	opts    *rootOptions
	goos    string

	settingsFile         string
	venvPath             string
	extras               string
	requirements         string
	recreateVenv         bool
	skipConstraintsCheck bool
}

// NewBuildCommand creates a new build command
func NewBuildCommand(fs filesystem.FileSystem, runner python.Runner, checker constraints.Checker, opts *rootOptions) *cobra.Command {
	cmd := &BuildCommand{
		fs:      fs,
		runner:  runner,
		checker: checker,
		opts:    opts,
		goos:    runtime.GOOS,
	}

	cobraCmd := &cobra.Command{
		Use:   "build [project_path]",
		Short: "Create the virtual environment and install Airflow",
		Long: `Read airflow_version and python_version from the settings file, create
(or validate) the virtual environment and pip install the pinned Airflow
release against the official constraints file.

Installation is skipped when the requested version is already installed.`,
		Example: `  # Build the project in the current directory
  airflowctl build

  # Rebuild from scratch with extras
  airflowctl build ./my_airflow_project --recreate-venv --extras postgres,celery`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.settingsFile, "settings-file", "",
		"Path to the settings file (default: <project_path>/settings.yaml)")
	cobraCmd.Flags().StringVar(&cmd.venvPath, "venv-path", "",
		"Path to the virtual environment (default: venv_path from settings or <project_path>/.venv/airflow_<version>_py<python>)")
	cobraCmd.Flags().BoolVar(&cmd.recreateVenv, "recreate-venv", false,
		"Recreate virtual environment if it already exists")
	cobraCmd.Flags().StringVar(&cmd.extras, "extras", "",
		"Comma separated Airflow extras to install (default: extras from settings)")
	cobraCmd.Flags().StringVar(&cmd.requirements, "requirements", "",
		"Requirements file installed together with Airflow")
	cobraCmd.Flags().BoolVar(&cmd.skipConstraintsCheck, "skip-constraints-check", false,
		"Do not verify on GitHub that constraints exist for the Airflow version")

	return cobraCmd
}

// Run executes the build command
func (c *BuildCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	logger := c.opts.Logger()
	out := stdout(cmd)

	projectArg := "."
	if len(args) > 0 {
		projectArg = args[0]
	}
	root, err := filesystem.Abs(c.fs, projectArg)
	if err != nil {
		return err
	}
	p := models.NewProject(root)

	settingsPath := p.SettingsPath()
	if c.settingsFile != "" {
		if settingsPath, err = filesystem.Abs(c.fs, c.settingsFile); err != nil {
			return err
		}
	}
	if !c.fs.Exists(settingsPath) {
		return fmt.Errorf("%w: '%s'", models.ErrSettingsNotFound, settingsPath)
	}

	settings, err := models.LoadSettings(c.fs, settingsPath)
	if err != nil {
		return err
	}

	platform, err := python.PlatformFor(c.goos)
	if err != nil {
		return err
	}

	constraintsURL := constraints.URL(settings.AirflowVersion, settings.PythonVersion)
	if !c.skipConstraintsCheck {
		if err := c.checkConstraints(ctx, out, settings.AirflowVersion); err != nil {
			return err
		}
	}

	venvPath := p.VenvPath(settings)
	if c.venvPath != "" {
		if venvPath, err = filesystem.Abs(c.fs, c.venvPath); err != nil {
			return err
		}
	}
	c.warnIfTracked(out, p, venvPath)

	provisioner := python.NewProvisioner(c.fs, c.runner, platform, logger, out)
	venvPath, err = provisioner.Ensure(ctx, python.EnsureOptions{
		Path:          venvPath,
		Recreate:      c.recreateVenv,
		PythonVersion: settings.PythonVersion,
	})
	if err != nil {
		return err
	}

	extras := c.extras
	if extras == "" {
		extras = settings.Extras
	}

	requirements := c.requirements
	if requirements != "" {
		if requirements, err = filesystem.Abs(c.fs, requirements); err != nil {
			return err
		}
	}

	installer := python.NewInstaller(c.fs, c.runner, platform, logger, out, stderr(cmd))
	result, err := installer.Install(ctx, python.InstallOptions{
		Version:        settings.AirflowVersion,
		VenvPath:       venvPath,
		ConstraintsURL: constraintsURL,
		Extras:         extras,
		Requirements:   requirements,
	})
	if err != nil {
		return err
	}

	if !result.Skipped {
		printSuccess(out, "Apache Airflow %s installed successfully!", settings.AirflowVersion)
		printInfo(out, "Virtual environment at %s", tui.HighlightStyle.Render(venvPath))
	}
	printInfo(out, "Airflow project built successfully.")
	return nil
}

func (c *BuildCommand) checkConstraints(ctx context.Context, out io.Writer, airflowVersion string) error {
	exists, err := c.checker.Exists(ctx, airflowVersion)
	if err != nil {
		c.opts.Logger().Warn("could not verify constraints", zap.Error(err))
		printWarning(out, "Could not verify constraints for Apache Airflow %s, continuing", airflowVersion)
		return nil
	}
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrConstraintsNotFound, constraints.RefName(airflowVersion))
	}
	return nil
}

func (c *BuildCommand) warnIfTracked(out io.Writer, p *models.Project, venvPath string) {
	ignored, err := project.IsIgnored(c.fs, p, venvPath, true)
	if err != nil {
		c.opts.Logger().Debug("could not evaluate .gitignore", zap.Error(err))
		return
	}

	if !ignored && isWithin(p.RootPath, venvPath) {
		printWarning(out, "Virtual environment %s is inside the project but not listed in .gitignore", venvPath)
	}
}

func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
