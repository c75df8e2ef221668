// Package version checks GitHub for a newer published release of this CLI.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Release coordinates. Fixed; the check always targets this repository.
const (
	releaseOwner = "hivebridge-io"
	releaseRepo  = "hivebridge"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps the release response body.
	maxResponseBytes = 64 << 10
)

// CheckerOptions contains optional configuration for the release checker.
type CheckerOptions struct {
	// BaseURL overrides the GitHub API base URL.
	BaseURL string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// Checker fetches the latest published release tag.
type Checker struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewChecker creates a release checker.
func NewChecker(opts *CheckerOptions) *Checker {
	c := &Checker{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: fmt.Sprintf("hivebridge/dev (%s/%s)", runtime.GOOS, runtime.GOARCH),
	}

	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
	}

	return c
}

// release is the subset of the GitHub release payload the check reads.
type release struct {
	TagName string `json:"tag_name"`
}

// Latest returns the latest published release version, without the "v"
// prefix.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, releaseOwner, releaseRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", hberr.Wrap(err, "creating release request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", hberr.Wrap(hberr.ErrNetworkError, "fetching latest release")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": strconv.Itoa(resp.StatusCode)})
	}

	var rel release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rel); err != nil {
		return "", hberr.Wrap(err, "decoding release response")
	}
	if rel.TagName == "" {
		return "", hberr.Wrap(hberr.ErrNotFound, "no published release")
	}

	return strings.TrimPrefix(rel.TagName, "v"), nil
}

// IsNewer reports whether latest is a release newer than the running build.
// A build without a release version ("dev" or a bare commit hash) always
// trails a published release.
func IsNewer(current, latest string) bool {
	lat, ok := parseSemver(latest)
	if !ok {
		return false
	}
	cur, ok := parseSemver(current)
	if !ok {
		return true
	}

	for i := 0; i < 3; i++ {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

// parseSemver extracts major.minor.patch, tolerating a "v" prefix and
// trailing pre-release or build metadata.
func parseSemver(v string) ([3]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	var out [3]int
	parts := strings.Split(v, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
