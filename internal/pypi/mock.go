package pypi

import (
	"context"
	"sync"
)

// MockResolver implements VersionResolver for testing
type MockResolver struct {
	mu    sync.Mutex
	calls int

	Version string
	Err     error
}

// NewMockResolver returns a resolver that always reports version
func NewMockResolver(version string) *MockResolver {
	return &MockResolver{Version: version}
}

func (m *MockResolver) LatestVersion(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return DefaultAirflowVersion, m.Err
	}
	return m.Version, nil
}

// Calls returns how often LatestVersion was invoked
func (m *MockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
