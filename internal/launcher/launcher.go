package launcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
	"github.com/jakoblorz/airflowctl/internal/python"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

// Launcher starts "airflow standalone" for a project
type Launcher struct {
	fs      filesystem.FileSystem
	runner  python.Runner
	goos    string
	environ func() []string
	logger  *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// Options configures a Launcher.
type Options struct {
	GOOS    string
	Environ func() []string
	Logger  *zap.Logger
	Stdout  io.Writer
	Stderr  io.Writer
}

// New creates a new Launcher
func New(fs filesystem.FileSystem, runner python.Runner, opts Options) *Launcher {
	l := &Launcher{
		fs:      fs,
		runner:  runner,
		goos:    opts.GOOS,
		environ: opts.Environ,
		logger:  opts.Logger,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
	}
	if l.environ == nil {
		l.environ = func() []string { return nil }
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

// Plan is the fully resolved child process for one start.
type Plan struct {
	Project  *models.Project
	Settings *models.Settings
	VenvPath string
	Command  python.Command
}

// Prepare validates the project and resolves the command to run without
// starting anything.
func (l *Launcher) Prepare(projectPath string) (*Plan, error) {
	root, err := filesystem.Abs(l.fs, projectPath)
	if err != nil {
		return nil, err
	}
	p := models.NewProject(root)

	if !l.fs.Exists(p.ConfigPath()) {
		return nil, fmt.Errorf("%w: '%s'", models.ErrConfigNotFound, p.ConfigPath())
	}
	if !l.fs.Exists(p.EnvPath()) {
		return nil, fmt.Errorf("%w: '%s'", models.ErrEnvFileNotFound, p.EnvPath())
	}

	settings, err := models.LoadSettings(l.fs, p.ConfigPath())
	if err != nil {
		return nil, err
	}

	dotenv, err := l.readEnvFile(p.EnvPath())
	if err != nil {
		return nil, err
	}

	platform, err := python.PlatformFor(l.goos)
	if err != nil {
		return nil, err
	}

	venvPath := p.VenvPath(settings)
	env, err := BuildEnvironment(EnvironmentInput{
		Base:     l.environ(),
		DotEnv:   dotenv,
		Project:  p,
		Settings: settings,
		VenvPath: venvPath,
		Platform: platform,
	})
	if err != nil {
		return nil, err
	}

	return &Plan{
		Project:  p,
		Settings: settings,
		VenvPath: venvPath,
		Command: python.Command{
			Name:   platform.Executable(venvPath, "airflow"),
			Args:   []string{"standalone"},
			Dir:    p.RootPath,
			Env:    env,
			Stdout: l.stdout,
			Stderr: l.stderr,
		},
	}, nil
}

// Start prepares the project and runs Airflow until it exits.
func (l *Launcher) Start(ctx context.Context, projectPath string) error {
	plan, err := l.Prepare(projectPath)
	if err != nil {
		return err
	}

	if !l.fs.Exists(plan.Command.Name) {
		return fmt.Errorf("%w: %s has no airflow executable, run build first", models.ErrInvalidVenv, plan.VenvPath)
	}

	l.logger.Info("starting airflow",
		zap.String("project", plan.Project.RootPath),
		zap.String("venv", plan.VenvPath))

	if err := l.runner.Run(ctx, plan.Command); err != nil {
		return fmt.Errorf("%w: %w", models.ErrLaunchFailed, err)
	}
	return nil
}

func (l *Launcher) readEnvFile(path string) (gotenv.Env, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	env, err := gotenv.StrictParse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return env, nil
}

// EnvironmentInput collects everything that contributes to the child env.
type EnvironmentInput struct {
	Base     []string
	DotEnv   map[string]string
	Project  *models.Project
	Settings *models.Settings
	VenvPath string
	Platform python.Platform
}

// BuildEnvironment composes the child environment. Later layers win:
// base environment, settings connections and variables, .env, then the
// project home and metadata database. The venv's bin directory is put at
// the front of PATH and VIRTUAL_ENV is set, which is what activation does.
func BuildEnvironment(in EnvironmentInput) ([]string, error) {
	env := newEnvMap(in.Platform.IsWindows())
	for _, kv := range in.Base {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env.set(k, v)
		}
	}

	if in.Settings != nil {
		if err := env.setAll("AIRFLOW_CONN_", in.Settings.Connections); err != nil {
			return nil, fmt.Errorf("invalid connection: %w", err)
		}
		if err := env.setAll("AIRFLOW_VAR_", in.Settings.Variables); err != nil {
			return nil, fmt.Errorf("invalid variable: %w", err)
		}
	}

	for k, v := range in.DotEnv {
		env.set(k, v)
	}

	env.set("AIRFLOW_HOME", in.Project.RootPath)
	env.set("AIRFLOW__DATABASE__SQL_ALCHEMY_CONN", in.Project.DatabaseURL())

	binDir := in.Platform.BinDir(in.VenvPath)
	if path := env.get("PATH"); path != "" {
		env.set("PATH", binDir+in.Platform.PathListSeparator()+path)
	} else {
		env.set("PATH", binDir)
	}
	env.set("VIRTUAL_ENV", in.VenvPath)
	env.unset("PYTHONHOME")

	return env.list(), nil
}

// envMap keeps the first spelling of each key, matching case-insensitively
// on Windows.
type envMap struct {
	foldCase bool
	keys     map[string]string
	values   map[string]string
}

func newEnvMap(foldCase bool) *envMap {
	return &envMap{
		foldCase: foldCase,
		keys:     make(map[string]string),
		values:   make(map[string]string),
	}
}

func (e *envMap) norm(k string) string {
	if e.foldCase {
		return strings.ToUpper(k)
	}
	return k
}

func (e *envMap) set(k, v string) {
	n := e.norm(k)
	if _, ok := e.keys[n]; !ok {
		e.keys[n] = k
	}
	e.values[n] = v
}

func (e *envMap) get(k string) string {
	return e.values[e.norm(k)]
}

func (e *envMap) unset(k string) {
	n := e.norm(k)
	delete(e.keys, n)
	delete(e.values, n)
}

func (e *envMap) setAll(prefix string, values map[string]interface{}) error {
	for id, raw := range values {
		value, err := envValue(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		e.set(prefix+strings.ToUpper(id), value)
	}
	return nil
}

func (e *envMap) list() []string {
	out := make([]string, 0, len(e.values))
	for n, v := range e.values {
		out = append(out, e.keys[n]+"="+v)
	}
	sort.Strings(out)
	return out
}

// envValue keeps strings verbatim and JSON encodes everything else, which
// is the format Airflow accepts for connections and variables.
func envValue(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(normalize(v))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// normalize turns YAML's map[interface{}]interface{} into JSON encodable maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
