package launcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/stretchr/testify/require"
)

const projectRoot = "/srv/proj"

const testConfig = `airflow_version: 2.7.0
python_version: "3.11"
connections:
  my_db: postgres://user:pass@db:5432/airflow
  http_api:
    conn_type: http
    host: example.com
    port: 443
variables:
  env: dev
  thresholds:
    low: 1
    high: 5
`

func newTestLauncher(fs filesystem.FileSystem, runner python.Runner, goos string) *Launcher {
	return New(fs, runner, Options{
		GOOS: goos,
		Environ: func() []string {
			return []string{"PATH=/usr/bin:/bin", "HOME=/home/dev", "AIRFLOW_VAR_ENV=outer", "PYTHONHOME=/bad"}
		},
	})
}

func envLookup(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func setupProject(fs *filesystem.MockFileSystem, config, dotenv string) {
	fs.AddDir(projectRoot)
	if config != "" {
		fs.AddFile(filepath.Join(projectRoot, models.ConfigFileName), []byte(config))
	}
	if dotenv != "" {
		fs.AddFile(filepath.Join(projectRoot, models.EnvFileName), []byte(dotenv))
	}
}

func TestStart_MissingConfig(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, "", "AIRFLOW__CORE__EXECUTOR=LocalExecutor\n")
	runner := python.NewMockRunner()

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrConfigNotFound)
	require.Empty(t, runner.Calls())
}

func TestStart_MissingEnvFile(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "")
	runner := python.NewMockRunner()

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrEnvFileNotFound)
	require.Empty(t, runner.Calls())
}

func TestStart_UnsupportedOS(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "A=1\n")
	runner := python.NewMockRunner()

	err := newTestLauncher(fs, runner, "plan9").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrUnsupportedOS)
	require.Empty(t, runner.Calls())
}

func TestPrepare_Environment(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "AIRFLOW_HOME=/elsewhere\nAIRFLOW__CORE__LOAD_EXAMPLES=False\nAIRFLOW_VAR_ENV=from-dotenv\n")

	plan, err := newTestLauncher(fs, python.NewMockRunner(), "linux").Prepare(projectRoot)
	require.NoError(t, err)

	venv := filepath.Join(projectRoot, ".venv", "airflow_2.7.0_py3.11")
	require.Equal(t, venv, plan.VenvPath)
	require.Equal(t, filepath.Join(venv, "bin", "airflow"), plan.Command.Name)
	require.Equal(t, []string{"standalone"}, plan.Command.Args)
	require.Equal(t, projectRoot, plan.Command.Dir)

	env := plan.Command.Env
	expect := map[string]string{
		"AIRFLOW_HOME":                        projectRoot,
		"AIRFLOW__DATABASE__SQL_ALCHEMY_CONN": "sqlite:///" + filepath.ToSlash(filepath.Join(projectRoot, "airflow.db")),
		"AIRFLOW__CORE__LOAD_EXAMPLES":        "False",
		"AIRFLOW_CONN_MY_DB":                  "postgres://user:pass@db:5432/airflow",
		"AIRFLOW_CONN_HTTP_API":               `{"conn_type":"http","host":"example.com","port":443}`,
		"AIRFLOW_VAR_ENV":                     "from-dotenv",
		"AIRFLOW_VAR_THRESHOLDS":              `{"high":5,"low":1}`,
		"VIRTUAL_ENV":                         venv,
		"PATH":                                filepath.Join(venv, "bin") + ":/usr/bin:/bin",
		"HOME":                                "/home/dev",
	}
	for key, want := range expect {
		got, ok := envLookup(env, key)
		require.Truef(t, ok, "missing %s", key)
		require.Equalf(t, want, got, "value of %s", key)
	}

	_, ok := envLookup(env, "PYTHONHOME")
	require.False(t, ok)
}

func TestPrepare_ExplicitVenvPath(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, "airflow_version: 2.7.0\npython_version: \"3.11\"\nvenv_path: envs/af\n", "A=1\n")

	plan, err := newTestLauncher(fs, python.NewMockRunner(), "windows").Prepare(projectRoot)
	require.NoError(t, err)

	venv := filepath.Join(projectRoot, "envs", "af")
	require.Equal(t, venv, plan.VenvPath)
	require.Equal(t, filepath.Join(venv, "Scripts", "airflow.exe"), plan.Command.Name)

	path, ok := envLookup(plan.Command.Env, "PATH")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(path, filepath.Join(venv, "Scripts")+";"))
}

func TestPrepare_MissingRequiredSetting(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, "python_version: \"3.11\"\n", "A=1\n")

	_, err := newTestLauncher(fs, python.NewMockRunner(), "linux").Prepare(projectRoot)
	require.ErrorIs(t, err, models.ErrMissingSetting)
}

func TestStart_RunsAirflow(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "A=1\n")
	fs.AddFile(filepath.Join(projectRoot, ".venv", "airflow_2.7.0_py3.11", "bin", "airflow"), []byte("#!"))
	runner := python.NewMockRunner()

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{"standalone"}, calls[0].Args)
}

func TestStart_ChildFailure(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "A=1\n")
	fs.AddFile(filepath.Join(projectRoot, ".venv", "airflow_2.7.0_py3.11", "bin", "airflow"), []byte("#!"))
	runner := python.NewMockRunner()
	runner.Handler = func(python.Command) (string, error) { return "", errors.New("exit status 1") }

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrLaunchFailed)
}

func TestStart_NotBuilt(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "A=1\n")
	runner := python.NewMockRunner()

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrInvalidVenv)
	require.Empty(t, runner.Calls())
}

func TestPrepare_NestedKeysKeepCase(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, `airflow_version: 2.7.0
python_version: "3.11"
connections:
  my_http:
    conn_type: http
    extra:
      X-Api-Key: abc
variables:
  Config:
    maxRetries: 3
`, "A=1\n")

	plan, err := newTestLauncher(fs, python.NewMockRunner(), "linux").Prepare(projectRoot)
	require.NoError(t, err)

	conn, ok := envLookup(plan.Command.Env, "AIRFLOW_CONN_MY_HTTP")
	require.True(t, ok)
	require.Equal(t, `{"conn_type":"http","extra":{"X-Api-Key":"abc"}}`, conn)

	variable, ok := envLookup(plan.Command.Env, "AIRFLOW_VAR_CONFIG")
	require.True(t, ok)
	require.Equal(t, `{"maxRetries":3}`, variable)
}

func TestStart_InterruptedChildKeepsCause(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	setupProject(fs, testConfig, "A=1\n")
	fs.AddFile(filepath.Join(projectRoot, ".venv", "airflow_2.7.0_py3.11", "bin", "airflow"), []byte("#!"))
	runner := python.NewMockRunner()
	runner.Handler = func(python.Command) (string, error) { return "", context.Canceled }

	err := newTestLauncher(fs, runner, "linux").Start(context.Background(), projectRoot)
	require.ErrorIs(t, err, models.ErrLaunchFailed)
	require.ErrorIs(t, err, context.Canceled)
}
