package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jakoblorz/airflowctl/internal/constraints"
	"github.com/jakoblorz/airflowctl/internal/models"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/stretchr/testify/require"
)

const buildSettings = `airflow_version: 2.7.0
python_version: "3.11"
`

var buildProject = filepath.Join(testWorkDir, "proj")

func (e *testEnv) writeSettings(content string) {
	e.fs.AddFile(filepath.Join(buildProject, models.SettingsFileName), []byte(content))
}

func TestBuild_MissingAirflowVersion(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings("python_version: \"3.11\"\n")

	_, err := e.execute(t, "build", buildProject)
	require.ErrorIs(t, err, models.ErrMissingSetting)
	require.Contains(t, err.Error(), "airflow_version")
	require.Equal(t, ExitFailure, ExitCode(err))
	require.Empty(t, e.runner.Calls())
}

func TestBuild_MissingSettingsFile(t *testing.T) {
	e := newTestEnv()
	e.fs.AddDir(buildProject)

	_, err := e.execute(t, "build", buildProject)
	require.ErrorIs(t, err, models.ErrSettingsNotFound)
	require.Empty(t, e.runner.Calls())
}

func TestBuild_CreatesVenvAndInstalls(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)

	out, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	require.Contains(t, out, "Apache Airflow 2.7.0 installed successfully!")
	require.Contains(t, out, "Airflow project built successfully.")

	venv := filepath.Join(buildProject, ".venv", "airflow_2.7.0_py3.11")
	interpreter := filepath.Join(venv, "bin", "python")
	url := constraints.URL("2.7.0", "3.11")

	require.Equal(t, []string{
		"/usr/bin/python3.11 -m venv " + venv,
		interpreter + " -m airflow version",
		interpreter + " -m pip install --upgrade pip setuptools wheel",
		interpreter + " -m pip install apache-airflow==2.7.0 --constraint " + url,
	}, e.runner.CommandLines())
	require.Equal(t, []string{"2.7.0"}, e.checker.Checked())
}

func TestBuild_SecondRunIsNoop(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)

	_, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	first := e.runner.CommandLines()

	out, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	require.Contains(t, out, "already installed. Skipping installation.")

	second := e.runner.CommandLines()[len(first):]
	require.Equal(t, 0, countMatching(second, " -m venv "))
	require.Equal(t, 0, countMatching(second, " -m pip install "))
	require.Equal(t, 1, countMatching(second, " -m airflow version"))
}

func TestBuild_DefaultsToCurrentDirectory(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)
	e.fs.SetCurrentDir(buildProject)

	_, err := e.execute(t, "build")
	require.NoError(t, err)
	require.True(t, e.fs.Exists(filepath.Join(buildProject, ".venv", "airflow_2.7.0_py3.11", "bin", "python")))
}

func TestBuild_FlagsOverrideSettings(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings + "extras: postgres\n")
	e.fs.AddFile(filepath.Join(buildProject, "extra.txt"), []byte("pandas\n"))
	custom := filepath.Join(testWorkDir, "envs", "af")

	_, err := e.execute(t, "build", buildProject,
		"--venv-path", custom,
		"--extras", "celery, redis",
		"--requirements", filepath.Join(buildProject, "extra.txt"),
		"--skip-constraints-check")
	require.NoError(t, err)

	require.Empty(t, e.checker.Checked())
	lines := e.runner.CommandLines()
	require.Equal(t, 1, countMatching(lines, "/usr/bin/python3.11 -m venv "+custom))
	require.Equal(t, 1, countMatching(lines, "apache-airflow[celery,redis]==2.7.0"))
	require.Equal(t, 1, countMatching(lines, "-r "+filepath.Join(buildProject, "extra.txt")))
}

func TestBuild_ExtrasFromSettings(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings + "extras: postgres\n")

	_, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	require.Equal(t, 1, countMatching(e.runner.CommandLines(), "apache-airflow[postgres]==2.7.0"))
}

func TestBuild_SettingsFileFlag(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.fs.AddDir(buildProject)
	e.fs.AddFile(filepath.Join(testWorkDir, "other.yaml"), []byte("airflow_version: 2.9.3\npython_version: \"3.11\"\n"))

	_, err := e.execute(t, "build", buildProject, "--settings-file", "other.yaml")
	require.NoError(t, err)
	require.Equal(t, []string{"2.9.3"}, e.checker.Checked())
	require.True(t, e.fs.Exists(filepath.Join(buildProject, ".venv", "airflow_2.9.3_py3.11", "bin", "python")))
}

func TestBuild_UnpublishedConstraints(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings("airflow_version: 1.0.0\npython_version: \"3.11\"\n")

	_, err := e.execute(t, "build", buildProject)
	require.ErrorIs(t, err, models.ErrConstraintsNotFound)
	require.Empty(t, e.runner.Calls())
}

func TestBuild_ConstraintsCheckUnavailable(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)
	e.checker.Err = errors.New("rate limited")

	out, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	require.Contains(t, out, "Could not verify constraints")
}

func TestBuild_InvalidExistingVenv(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)
	venv := filepath.Join(buildProject, ".venv", "airflow_2.7.0_py3.11")
	e.fs.AddFile(filepath.Join(venv, "README"), []byte("not a venv"))

	_, err := e.execute(t, "build", buildProject)
	require.ErrorIs(t, err, models.ErrInvalidVenv)
	require.Equal(t, 0, countMatching(e.runner.CommandLines(), " -m pip "))
}

func TestBuild_RecreateVenv(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)
	venv := filepath.Join(buildProject, ".venv", "airflow_2.7.0_py3.11")
	e.fs.AddFile(filepath.Join(venv, "README"), []byte("not a venv"))

	_, err := e.execute(t, "build", buildProject, "--recreate-venv")
	require.NoError(t, err)
	require.False(t, e.fs.Exists(filepath.Join(venv, "README")))
	require.Equal(t, 1, countMatching(e.runner.CommandLines(), " -m venv "+venv))
}

func TestBuild_InstallFailure(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings)
	simulate := e.runner.Handler
	e.runner.Handler = func(cmd python.Command) (string, error) {
		if len(cmd.Args) > 3 && cmd.Args[3] == "apache-airflow==2.7.0" {
			return "", errors.New("exit status 1")
		}
		return simulate(cmd)
	}

	_, err := e.execute(t, "build", buildProject)
	require.ErrorIs(t, err, models.ErrInstallFailed)
	require.Equal(t, ExitFailure, ExitCode(err))
}

func TestBuild_WarnsWhenVenvNotIgnored(t *testing.T) {
	e := newTestEnv()
	e.simulatePython(t)
	e.writeSettings(buildSettings + "venv_path: envs/af\n")
	e.fs.AddFile(filepath.Join(buildProject, models.GitignoreName), []byte(".venv/\n"))

	out, err := e.execute(t, "build", buildProject)
	require.NoError(t, err)
	require.Contains(t, out, "not listed in .gitignore")
}
