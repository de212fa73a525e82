package constraints

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, handler http.HandlerFunc) *GitHubChecker {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	return NewGitHubCheckerWithClient(client)
}

func TestURL(t *testing.T) {
	require.Equal(t,
		"https://raw.githubusercontent.com/apache/airflow/constraints-2.7.0/constraints-3.11.txt",
		URL("2.7.0", "3.11"))
}

func TestGitHubChecker_Exists(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/apache/airflow/git/ref/tags/constraints-2.7.0", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ref": "refs/tags/constraints-2.7.0", "object": {"sha": "abc123", "type": "commit"}}`))
	})

	ok, err := checker.Exists(context.Background(), "2.7.0")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGitHubChecker_NotFound(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	ok, err := checker.Exists(context.Background(), "0.0.1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGitHubChecker_ServerError(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ok, err := checker.Exists(context.Background(), "2.7.0")
	require.Error(t, err)
	require.False(t, ok)
	require.Contains(t, err.Error(), "constraints-2.7.0")
}
