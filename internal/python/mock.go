package python

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// MockRunner implements Runner for testing. Calls are recorded and answered
// by Handler; a nil Handler makes every command succeed with empty output.
type MockRunner struct {
	mu    sync.Mutex
	calls []Command
	paths map[string]string

	Handler func(cmd Command) (string, error)
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{paths: make(map[string]string)}
}

// AddExecutable makes LookPath resolve name to path
func (m *MockRunner) AddExecutable(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[name] = path
}

func (m *MockRunner) Run(ctx context.Context, cmd Command) error {
	out, err := m.handle(cmd)
	if err == nil && out != "" && cmd.Stdout != nil {
		_, _ = fmt.Fprintln(cmd.Stdout, out)
	}
	return err
}

func (m *MockRunner) Output(ctx context.Context, cmd Command) (string, error) {
	out, err := m.handle(cmd)
	return strings.TrimSpace(out), err
}

func (m *MockRunner) LookPath(file string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.paths[file]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func (m *MockRunner) handle(cmd Command) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	handler := m.Handler
	m.mu.Unlock()

	if handler == nil {
		return "", nil
	}
	return handler(cmd)
}

// Calls returns all recorded commands
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// CommandLines returns the recorded commands rendered as strings
func (m *MockRunner) CommandLines() []string {
	var lines []string
	for _, c := range m.Calls() {
		lines = append(lines, c.String())
	}
	return lines
}
