package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

const (
	// DefaultAirflowVersion is used whenever the index cannot be queried.
	DefaultAirflowVersion = "2.7.0"

	// DefaultIndexURL is the PyPI JSON API root.
	DefaultIndexURL = "https://pypi.org/pypi"

	// AirflowPackage is the distribution name looked up on the index.
	AirflowPackage = "apache-airflow"
)

// VersionResolver looks up the latest stable Airflow release.
//
// LatestVersion always returns a usable version. A non-nil error means the
// index could not be consulted and DefaultAirflowVersion was returned instead.
type VersionResolver interface {
	LatestVersion(ctx context.Context) (string, error)
}

// Resolver implements VersionResolver against the PyPI JSON API
type Resolver struct {
	httpClient *http.Client
	indexURL   string
	logger     *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIndexURL points the resolver at a different JSON API root.
func WithIndexURL(url string) Option {
	return func(r *Resolver) {
		r.indexURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = client
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new Resolver
func NewResolver(options ...Option) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		indexURL:   DefaultIndexURL,
		logger:     zap.NewNop(),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

type projectInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

var errMissingVersion = errors.New("index response has no info.version")

// LatestVersion returns the version PyPI reports as latest, or the fallback.
func (r *Resolver) LatestVersion(ctx context.Context) (string, error) {
	version, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn("falling back to default Airflow version",
			zap.String("version", DefaultAirflowVersion),
			zap.Error(err))
		return DefaultAirflowVersion, err
	}

	r.logger.Debug("resolved latest Airflow version", zap.String("version", version))
	return version, nil
}

func (r *Resolver) fetch(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/%s/json", r.indexURL, AirflowPackage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status from %s: %s", url, resp.Status)
	}

	var info projectInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode index response: %w", err)
	}

	version := strings.TrimSpace(info.Info.Version)
	if version == "" {
		return "", errMissingVersion
	}

	if _, err := semver.NewVersion(version); err != nil {
		return "", fmt.Errorf("index reported unparseable version %q: %w", version, err)
	}

	return version, nil
}
