package models

import (
	"fmt"
	"path/filepath"
)

// Well-known names inside a project directory.
const (
	DagsDir          = "dags"
	PluginsDir       = "plugins"
	SettingsFileName = "settings.yaml"
	ConfigFileName   = "config.yaml"
	EnvFileName      = ".env"
	GitignoreName    = ".gitignore"
	RequirementsName = "requirements.txt"
	DatabaseFileName = "airflow.db"
	VenvDirName      = ".venv"
)

// Project represents an Airflow project directory managed by airflowctl.
type Project struct {
	// RootPath is the absolute path to the project root
	RootPath string
}

// NewProject creates a new Project instance
func NewProject(rootPath string) *Project {
	return &Project{RootPath: filepath.Clean(rootPath)}
}

// Path joins elem onto the project root.
func (p *Project) Path(elem ...string) string {
	return filepath.Join(append([]string{p.RootPath}, elem...)...)
}

func (p *Project) DagsPath() string         { return p.Path(DagsDir) }
func (p *Project) PluginsPath() string      { return p.Path(PluginsDir) }
func (p *Project) SettingsPath() string     { return p.Path(SettingsFileName) }
func (p *Project) ConfigPath() string       { return p.Path(ConfigFileName) }
func (p *Project) EnvPath() string          { return p.Path(EnvFileName) }
func (p *Project) GitignorePath() string    { return p.Path(GitignoreName) }
func (p *Project) RequirementsPath() string { return p.Path(RequirementsName) }

// DatabaseURL is the SQLite metadata database Airflow uses for this project.
func (p *Project) DatabaseURL() string {
	return "sqlite:///" + filepath.ToSlash(p.Path(DatabaseFileName))
}

// VenvPath resolves the virtual environment for the given settings.
//
// An explicit venv_path wins and is interpreted relative to the project
// root. Otherwise the path is .venv/airflow_<airflow>_py<python>.
func (p *Project) VenvPath(s *Settings) string {
	if s.VenvPath != "" {
		if filepath.IsAbs(s.VenvPath) {
			return filepath.Clean(s.VenvPath)
		}
		return p.Path(s.VenvPath)
	}
	return p.Path(VenvDirName, fmt.Sprintf("airflow_%s_py%s", s.AirflowVersion, s.PythonVersion))
}
