package project

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"go.uber.org/zap"
)

//go:embed dags/*.py
var exampleDags embed.FS

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) (bool, error)

func (f ConfirmFunc) Confirm(message string) (bool, error) { return f(message) }

// Scaffolder creates Airflow project directories
type Scaffolder struct {
	fs      filesystem.FileSystem
	confirm Confirmer
	logger  *zap.Logger
}

// NewScaffolder creates a new Scaffolder
func NewScaffolder(fs filesystem.FileSystem, confirm Confirmer, logger *zap.Logger) *Scaffolder {
	return &Scaffolder{
		fs:      fs,
		confirm: confirm,
		logger:  logger,
	}
}

// InitOptions describes the project to create.
type InitOptions struct {
	Name           string
	AirflowVersion string
	PythonVersion  string
}

// Result lists what Init wrote and what it left alone.
type Result struct {
	ProjectDir string
	Written    []string
	Skipped    []string
}

func (r *Result) written(p string) { r.Written = append(r.Written, p) }
func (r *Result) skipped(p string) { r.Skipped = append(r.Skipped, p) }

// Init scaffolds a project. Existing settings.yaml, .env, requirements.txt
// and example DAGs are kept; .gitignore is always rewritten. A failure part
// way leaves whatever was already written in place.
func (s *Scaffolder) Init(opts InitOptions) (*Result, error) {
	dir, err := filesystem.Abs(s.fs, opts.Name)
	if err != nil {
		return nil, err
	}
	p := models.NewProject(dir)
	result := &Result{ProjectDir: p.RootPath}

	if err := s.fs.MkdirAll(p.RootPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	empty, err := filesystem.IsEmptyDir(s.fs, p.RootPath)
	if err != nil {
		return nil, err
	}
	if !empty {
		ok, err := s.confirm.Confirm(fmt.Sprintf("Directory %s is not empty. Continue?", p.RootPath))
		if err != nil {
			return nil, fmt.Errorf("failed to confirm: %w", err)
		}
		if !ok {
			return nil, models.ErrAborted
		}
	}

	if err := s.fs.MkdirAll(p.DagsPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create dags directory: %w", err)
	}
	if err := s.copyExampleDags(p, result); err != nil {
		return nil, err
	}

	if err := s.fs.MkdirAll(p.PluginsPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create plugins directory: %w", err)
	}

	if err := s.writeIfAbsent(p.RequirementsPath(), "", result); err != nil {
		return nil, err
	}

	if err := s.fs.WriteFile(p.GitignorePath(), []byte(GitignoreContent()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write .gitignore: %w", err)
	}
	result.written(p.GitignorePath())

	data := TemplateData{
		ProjectDir:     p.RootPath,
		AirflowVersion: opts.AirflowVersion,
		PythonVersion:  opts.PythonVersion,
	}

	settings, err := Render(models.SettingsFileName, SettingsTemplate, data)
	if err != nil {
		return nil, err
	}
	if err := s.writeIfAbsent(p.SettingsPath(), settings, result); err != nil {
		return nil, err
	}

	env, err := Render(models.EnvFileName, EnvTemplate, data)
	if err != nil {
		return nil, err
	}
	if err := s.writeIfAbsent(p.EnvPath(), env, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Scaffolder) copyExampleDags(p *models.Project, result *Result) error {
	entries, err := fs.ReadDir(exampleDags, "dags")
	if err != nil {
		return fmt.Errorf("failed to read bundled dags: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := exampleDags.ReadFile(path.Join("dags", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read bundled dag %s: %w", entry.Name(), err)
		}

		target := p.Path(models.DagsDir, entry.Name())
		if err := s.writeIfAbsent(target, string(content), result); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scaffolder) writeIfAbsent(target, content string, result *Result) error {
	if s.fs.Exists(target) {
		s.logger.Debug("keeping existing file", zap.String("path", target))
		result.skipped(target)
		return nil
	}

	if err := s.fs.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	result.written(target)
	return nil
}

// ExampleDagNames lists the DAG files bundled with airflowctl.
func ExampleDagNames() []string {
	entries, _ := fs.ReadDir(exampleDags, "dags")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
