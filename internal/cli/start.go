package cli

import (
	"os"
	"runtime"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/launcher"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/spf13/cobra"
)

// StartCommand handles the start command
type StartCommand struct {
	fs      filesystem.FileSystem
	runner  python.Runner
	opts    *rootOptions
	goos    string
	environ func() []string
}

// NewStartCommand creates a new start command
func NewStartCommand(fs filesystem.FileSystem, runner python.Runner, opts *rootOptions) *cobra.Command {
	cmd := &StartCommand{
		fs:      fs,
		runner:  runner,
		opts:    opts,
		goos:    runtime.GOOS,
		environ: os.Environ,
	}

	cobraCmd := &cobra.Command{
		Use:   "start <project_path>",
		Short: "Run airflow standalone for a project",
		Long: `Load config.yaml and .env from the project, then run "airflow standalone"
from the project's virtual environment.

AIRFLOW_HOME is set to the project directory and the metadata database is a
SQLite file inside it. Connections and variables from config.yaml are exported
as AIRFLOW_CONN_* and AIRFLOW_VAR_*; values from .env take precedence.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: cmd.Run,
	}

	return cobraCmd
}

// Run executes the start command
func (c *StartCommand) Run(cmd *cobra.Command, args []string) error {
	l := launcher.New(c.fs, c.runner, launcher.Options{
		GOOS:    c.goos,
		Environ: c.environ,
		Logger:  c.opts.Logger(),
		Stdout:  stdout(cmd),
		Stderr:  stderr(cmd),
	})

	return l.Start(commandContext(cmd), args[0])
}
