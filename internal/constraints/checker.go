package constraints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	airflowOwner = "apache"
	airflowRepo  = "airflow"
)

// Checker verifies that constraints are published for an Airflow release.
type Checker interface {
	Exists(ctx context.Context, airflowVersion string) (bool, error)
}

// GitHubChecker implements Checker by looking up the constraints tag on GitHub
type GitHubChecker struct {
	client *github.Client
}

// NewGitHubChecker creates a checker authenticated with token
func NewGitHubChecker(token string) *GitHubChecker {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubChecker{client: github.NewClient(tc)}
}

// NewGitHubCheckerFromEnv uses GH_TOKEN or GITHUB_TOKEN when set and falls
// back to anonymous access, which is enough for public tag lookups.
func NewGitHubCheckerFromEnv() *GitHubChecker {
	token := os.Getenv("GH_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return NewGitHubCheckerWithClient(github.NewClient(nil))
	}
	return NewGitHubChecker(token)
}

// NewGitHubCheckerWithClient wraps an existing go-github client
func NewGitHubCheckerWithClient(client *github.Client) *GitHubChecker {
	return &GitHubChecker{client: client}
}

// Exists reports whether the constraints tag for airflowVersion exists.
// A 404 is a definite "no"; every other failure is returned as an error.
func (c *GitHubChecker) Exists(ctx context.Context, airflowVersion string) (bool, error) {
	_, resp, err := c.client.Git.GetRef(ctx, airflowOwner, airflowRepo, "tags/"+RefName(airflowVersion))
	if err == nil {
		return true, nil
	}

	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false, fmt.Errorf("github rate limit reached while checking constraints: %w", err)
	}

	return false, fmt.Errorf("failed to look up %s: %w", RefName(airflowVersion), err)
}
