package project

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData is rendered into settings.yaml and .env.
type TemplateData struct {
	ProjectDir     string
	AirflowVersion string
	PythonVersion  string
}

const SettingsTemplate = `# Airflow version to be installed
airflow_version: {{ .AirflowVersion }}
# Python version for the project
python_version: {{ .PythonVersion | quote }}

# Airflow conn
connections: {}
# Airflow vars
variables: {}
`

const EnvTemplate = `AIRFLOW_HOME={{ .ProjectDir }}
AIRFLOW__CORE__LOAD_EXAMPLES=False
AIRFLOW__CORE__EXECUTOR=LocalExecutor
`

// GitignoreEntries is written to every project's .gitignore.
var GitignoreEntries = []string{
	".git",
	"airflow.cfg",
	"airflow.db",
	"airflow-webserver.pid",
	"logs",
	".DS_Store",
	"__pycache__/",
	".env",
	".venv",
	".airflowctl",
}

// GitignoreContent returns the fixed .gitignore body.
func GitignoreContent() string {
	return strings.Join(GitignoreEntries, "\n") + "\n"
}

// Render executes one of the project templates with sprig functions.
func Render(name, text string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
