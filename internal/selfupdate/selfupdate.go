// Package selfupdate checks GitHub for a newer gcloud-switch release and
// installs it with the release's installer script.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const maxJSONResponseBytes = 1 << 20

// ErrInvalidVersion indicates a version string that is not semver.
var ErrInvalidVersion = errors.New("invalid version")

// Release is the part of a GitHub release the check needs.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check is the outcome of comparing the running version with the latest release.
type Check struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

// Checker queries the GitHub releases API.
type Checker struct {
	httpClient   *http.Client
	baseURL      string
	downloadBase string
	rawBase      string
	owner        string
	repo         string
	userAgent    string
	shell        string
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets the client used for API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.httpClient = c }
}

// WithBaseURL overrides the API base URL, for test servers.
func WithBaseURL(base string) Option {
	return func(ch *Checker) { ch.baseURL = strings.TrimRight(base, "/") }
}

// WithDownloadBaseURL overrides the host release assets are fetched from.
func WithDownloadBaseURL(base string) Option {
	return func(ch *Checker) { ch.downloadBase = strings.TrimRight(base, "/") }
}

// WithRawBaseURL overrides the host repository files are fetched from.
func WithRawBaseURL(base string) Option {
	return func(ch *Checker) { ch.rawBase = strings.TrimRight(base, "/") }
}

// WithShell sets the interpreter for the installer script.
func WithShell(shell string) Option {
	return func(ch *Checker) { ch.shell = shell }
}

// WithRepo overrides the repository.
func WithRepo(owner, repo string) Option {
	return func(ch *Checker) {
		ch.owner = owner
		ch.repo = repo
	}
}

// New returns a checker for tjirsch/gcloud-switch.
func New(opts ...Option) *Checker {
	c := &Checker{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:      "https://api.github.com",
		downloadBase: "https://github.com",
		rawBase:      "https://raw.githubusercontent.com",
		owner:        "tjirsch",
		repo:         "gcloud-switch",
		userAgent:    "gcloud-switch",
		shell:        "sh",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the latest stable release.
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Release{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("fetching latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("fetching latest release: unexpected status %d", resp.StatusCode)
	}
	var r Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&r); err != nil {
		return Release{}, fmt.Errorf("decoding latest release: %w", err)
	}
	return r, nil
}

// Check compares current with the latest release.
func (c *Checker) Check(ctx context.Context, current string) (Check, error) {
	cur, err := normalizeVersion(current)
	if err != nil {
		return Check{}, err
	}
	rel, err := c.Latest(ctx)
	if err != nil {
		return Check{}, err
	}
	latest, err := normalizeVersion(rel.TagName)
	if err != nil {
		return Check{}, fmt.Errorf("release version: %w", err)
	}
	return Check{
		Current:   current,
		Latest:    rel.TagName,
		URL:       rel.HTMLURL,
		Available: semver.Compare(cur, latest) < 0,
	}, nil
}

// Due reports whether a check should run for frequency given the time of the
// last one. An unparseable lastCheck counts as never checked.
func Due(frequency, lastCheck string, now time.Time) bool {
	switch frequency {
	case "never":
		return false
	case "always":
		return true
	}
	last, err := time.Parse(time.RFC3339, lastCheck)
	if err != nil {
		return true
	}
	return now.Sub(last) >= 24*time.Hour
}

// normalizeVersion adds the "v" prefix semver wants and validates the result.
func normalizeVersion(v string) (string, error) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}
