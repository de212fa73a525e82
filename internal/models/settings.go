package models

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the content of a project's settings.yaml or config.yaml.
type Settings struct {
	AirflowVersion string
	PythonVersion  string

	// VenvPath overrides the conventional virtual environment location.
	VenvPath string

	// Extras are pip extras installed alongside apache-airflow, e.g. "postgres,celery".
	Extras string

	// Connections maps connection ids to URIs or connection objects.
	Connections map[string]interface{}

	// Variables maps Airflow variable keys to values.
	Variables map[string]interface{}
}

// settingsMaps decodes the free-form sections. viper folds map keys to
// lower case, which would alter connection extras and JSON variables.
type settingsMaps struct {
	Connections map[string]interface{} `yaml:"connections"`
	Variables   map[string]interface{} `yaml:"variables"`
}

var requiredSettings = []string{"airflow_version", "python_version"}

// LoadSettings reads and validates a settings document.
//
// Both airflow_version and python_version must be present and non-empty,
// otherwise the returned error wraps ErrMissingSetting.
func LoadSettings(fs filesystem.FileSystem, path string) (*Settings, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ParseSettings(data, path)
}

// ParseSettings parses YAML settings; source is only used in error messages.
func ParseSettings(data []byte, source string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	for _, key := range requiredSettings {
		if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("%w: key '%s' not found in %s", ErrMissingSetting, key, source)
		}
	}

	var maps settingsMaps
	if err := yaml.Unmarshal(data, &maps); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	return &Settings{
		AirflowVersion: strings.TrimSpace(v.GetString("airflow_version")),
		PythonVersion:  strings.TrimSpace(v.GetString("python_version")),
		VenvPath:       strings.TrimSpace(v.GetString("venv_path")),
		Extras:         strings.TrimSpace(v.GetString("extras")),
		Connections:    maps.Connections,
		Variables:      maps.Variables,
	}, nil
}
