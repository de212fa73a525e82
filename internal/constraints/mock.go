package constraints

import (
	"context"
	"sync"
)

// MockChecker implements Checker for testing
type MockChecker struct {
	mu        sync.Mutex
	published map[string]bool
	checked   []string

	// Err is returned from every Exists call when set
	Err error
}

// NewMockChecker creates a checker that knows the given versions
func NewMockChecker(published ...string) *MockChecker {
	m := &MockChecker{published: make(map[string]bool)}
	for _, v := range published {
		m.published[v] = true
	}
	return m
}

func (m *MockChecker) Exists(ctx context.Context, airflowVersion string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checked = append(m.checked, airflowVersion)
	if m.Err != nil {
		return false, m.Err
	}
	return m.published[airflowVersion], nil
}

// Checked returns the versions Exists was called with
func (m *MockChecker) Checked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.checked...)
}
