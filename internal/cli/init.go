package cli

import (
	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/project"
	"github.com/jakoblorz/airflowctl/internal/pypi"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/jakoblorz/airflowctl/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// InitCommand handles the init command
type InitCommand struct {
	fs       filesystem.FileSystem
	runner   python.Runner
	resolver pypi.VersionResolver
	confirm  project.Confirmer
	opts     *rootOptions

	airflowVersion string
	pythonVersion  string
}

// NewInitCommand creates a new init command
func NewInitCommand(fs filesystem.FileSystem, runner python.Runner, resolver pypi.VersionResolver, confirm project.Confirmer, opts *rootOptions) *cobra.Command {
	cmd := &InitCommand{
		fs:       fs,
		runner:   runner,
		resolver: resolver,
		confirm:  confirm,
		opts:     opts,
	}

	cobraCmd := &cobra.Command{
		Use:   "init <project_name>",
		Short: "Initialize a new Airflow project",
		Long: `Create the project directory with dags/, plugins/, settings.yaml, .env,
.gitignore and requirements.txt.

Existing settings.yaml, .env and requirements.txt are never overwritten.
.gitignore is rewritten on every run.`,
		Example: `  # Latest Airflow release, host Python version
  airflowctl init my_airflow_project

  # Pinned versions
  airflowctl init my_airflow_project --airflow-version 2.7.0 --python-version 3.11`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.airflowVersion, "airflow-version", "",
		"Version of Apache Airflow to be used in the project (default: latest release)")
	cobraCmd.Flags().StringVar(&cmd.pythonVersion, "python-version", "",
		"Version of Python to be used in the project (default: host python3)")

	return cobraCmd
}

// Run executes the init command
func (c *InitCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	logger := c.opts.Logger()
	out := stdout(cmd)

	airflowVersion := c.airflowVersion
	if airflowVersion == "" {
		version, err := c.resolver.LatestVersion(ctx)
		if err != nil {
			printWarning(out, "Error occurred while retrieving latest version: %v", err)
			printWarning(out, "Defaulting to Apache Airflow version %s", version)
		} else {
			printInfo(out, "Latest Apache Airflow version detected: %s", tui.HighlightStyle.Render(version))
		}
		airflowVersion = version
	}

	pythonVersion := c.pythonVersion
	if pythonVersion == "" {
		version, err := python.HostVersion(ctx, c.runner)
		if err != nil {
			logger.Debug("could not detect host python version",
				zap.String("default", python.DefaultPythonVersion),
				zap.Error(err))
			version = python.DefaultPythonVersion
		}
		pythonVersion = version
	}

	scaffolder := project.NewScaffolder(c.fs, c.confirm, logger)
	result, err := scaffolder.Init(project.InitOptions{
		Name:           args[0],
		AirflowVersion: airflowVersion,
		PythonVersion:  pythonVersion,
	})
	if err != nil {
		return err
	}

	printSuccess(out, "Airflow project initialized in %s", result.ProjectDir)
	return nil
}
