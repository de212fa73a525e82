package cli

import (
	"context"
	"fmt"

	"github.com/jakoblorz/airflowctl/internal/constraints"
	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/project"
	"github.com/jakoblorz/airflowctl/internal/pypi"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/jakoblorz/airflowctl/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootOptions holds state shared by all subcommands.
type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

// Logger returns the configured logger, or a no-op logger before setup.
func (o *rootOptions) Logger() *zap.Logger {
	if o == nil || o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

func (o *rootOptions) setupLogger() error {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true
	config.Sampling = nil
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if o.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	o.logger = logger
	return nil
}

// NewRootCommand creates the root command
func NewRootCommand(
	fs filesystem.FileSystem,
	runner python.Runner,
	resolver pypi.VersionResolver,
	checker constraints.Checker,
	confirm project.Confirmer,
) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "airflowctl",
		Short: "Manage local Apache Airflow projects",
		Long: `A CLI tool for local Apache Airflow development.

Scaffold a project with init, install a pinned Airflow into a virtual
environment with build, and run airflow standalone with start.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			return opts.setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(NewInitCommand(fs, runner, resolver, confirm, opts))
	rootCmd.AddCommand(NewBuildCommand(fs, runner, checker, opts))
	rootCmd.AddCommand(NewStartCommand(fs, runner, opts))

	return rootCmd
}

// Execute runs the root command with production dependencies
func Execute(ctx context.Context) error {
	fs := filesystem.NewOSFileSystem()
	runner := python.NewOSRunner()
	resolver := pypi.NewResolver()
	checker := constraints.NewGitHubCheckerFromEnv()

	rootCmd := NewRootCommand(fs, runner, resolver, checker, tui.NewPrompter())

	return rootCmd.ExecuteContext(ctx)
}
