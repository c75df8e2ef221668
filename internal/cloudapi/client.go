// Package cloudapi is the HTTP client for the cloud-custody collaborators:
// the OAuth token relay, the auth status/verify endpoints, the wallet-file
// existence check, and the drive file API itself. Tokens are httpOnly
// server-side credentials; this client only ever sees the short-lived access
// token the relay hands out.
package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hivebridge-io/hivebridge/internal/metrics"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps collaborator response bodies.
	maxResponseBytes = 1 << 20
)

// ClientOptions contains optional configuration for the cloud API client.
type ClientOptions struct {
	// BaseURL overrides the default collaborator base URL.
	BaseURL string

	// DriveBaseURL overrides the default drive file API base URL.
	DriveBaseURL string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Limiter overrides the default rate limiter.
	Limiter *RateLimiter
}

// Client talks to the cloud-custody collaborator endpoints. No call retries;
// transient failures surface immediately and the caller owns retry policy.
type Client struct {
	baseURL      string
	driveBaseURL string
	httpClient   *http.Client
	limiter      *RateLimiter
}

// NewClient creates a cloud API client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:      "http://localhost:3000/api/auth",
		driveBaseURL: "https://www.googleapis.com/drive/v3",
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: DefaultRateLimiter(),
	}

	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.DriveBaseURL != "" {
			c.driveBaseURL = strings.TrimRight(opts.DriveBaseURL, "/")
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.Limiter != nil {
			c.limiter = opts.Limiter
		}
	}

	return c
}

// TokenResponse is the token relay response.
type TokenResponse struct {
	Token string `json:"token"`
}

// FetchToken returns a fresh access token for drive calls. Silent refresh is
// the relay's responsibility.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	var resp TokenResponse
	if err := c.getJSON(ctx, c.baseURL+"/token", &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", hberr.ErrAuthExpired
	}
	return resp.Token, nil
}

// AuthStatus is the OAuth status response.
type AuthStatus struct {
	Authenticated bool            `json:"authenticated"`
	User          json.RawMessage `json:"user,omitempty"`
}

// Status returns the current OAuth session state. It never fails the caller:
// any transport or decode error reads as "not authenticated".
func (c *Client) Status(ctx context.Context) *AuthStatus {
	var resp AuthStatus
	if err := c.getJSON(ctx, c.baseURL+"/status", &resp); err != nil {
		return &AuthStatus{Authenticated: false}
	}
	return &resp
}

// FileInfo is the wallet-file existence response.
type FileInfo struct {
	Exists bool   `json:"exists"`
	FileID string `json:"fileId"`
}

// WalletFile checks whether the remote wallet file exists without
// downloading it.
func (c *Client) WalletFile(ctx context.Context) (*FileInfo, error) {
	var resp FileInfo
	if err := c.getJSON(ctx, c.baseURL+"/wallet-file", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyAuth checks that the OAuth session is still valid. An expired or
// revoked session surfaces as ErrAuthExpired so the caller can force
// re-authentication; it is never retried here.
func (c *Client) VerifyAuth(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodGet, c.baseURL+"/verify", nil, "")
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return hberr.WithDetails(hberr.ErrAuthExpired,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	case strings.Contains(string(body), "invalid_grant"):
		return hberr.WithDetails(hberr.ErrAuthExpired,
			map[string]string{"reason": "invalid_grant"})
	case status < 200 || status >= 300:
		return hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	}
	return nil
}

// LogoutResponse is the logout endpoint response.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// Logout invalidates the server-side OAuth session and revokes the
// underlying third-party token.
func (c *Client) Logout(ctx context.Context) (bool, error) {
	body, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/logout", nil, "")
	if err != nil {
		return false, err
	}
	if status < 200 || status >= 300 {
		return false, hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	}

	var resp LogoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, hberr.Wrap(err, "parsing logout response")
	}
	return resp.Success, nil
}

// DownloadFile fetches a drive file's raw content.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/files/%s?alt=media", c.driveBaseURL, fileID)
	body, status, err := c.do(ctx, http.MethodGet, url, nil, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, hberr.ErrAuthExpired
	}
	if status == http.StatusNotFound {
		return nil, hberr.ErrWalletNotFound
	}
	if status < 200 || status >= 300 {
		return nil, hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	}
	return body, nil
}

type createFileResponse struct {
	ID string `json:"id"`
}

// CreateFile uploads a new drive file with the given name and content,
// returning the file ID.
func (c *Client) CreateFile(ctx context.Context, name string, content []byte) (string, error) {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/files?uploadType=media&name=%s", c.driveBaseURL, name)
	body, status, err := c.do(ctx, http.MethodPost, url, content, token)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", hberr.ErrAuthExpired
	}
	if status < 200 || status >= 300 {
		return "", hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	}

	var resp createFileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", hberr.Wrap(err, "parsing create-file response")
	}
	return resp.ID, nil
}

// UpdateFile replaces an existing drive file's content.
func (c *Client) UpdateFile(ctx context.Context, fileID string, content []byte) error {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/files/%s?uploadType=media", c.driveBaseURL, fileID)
	_, status, err := c.do(ctx, http.MethodPatch, url, content, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return hberr.ErrAuthExpired
	}
	if status < 200 || status >= 300 {
		return hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status)})
	}
	return nil
}

type keyRegisteredResponse struct {
	Registered bool `json:"registered"`
}

// IsRegistered checks server-side whether publicKey is registered for
// account. Satisfies the session registry's key lookup.
func (c *Client) IsRegistered(ctx context.Context, account, publicKey string) (bool, error) {
	url := fmt.Sprintf("%s/accounts/%s/keys/%s", c.baseURL, account, publicKey)

	var resp keyRegisteredResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return false, err
	}
	return resp.Registered, nil
}

// getJSON performs a rate-limited GET and decodes a 2xx JSON body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	body, status, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return hberr.ErrAuthExpired
	}
	if status < 200 || status >= 300 {
		return hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"status": fmt.Sprintf("%d", status), "url": url})
	}

	if err := json.Unmarshal(body, out); err != nil {
		return hberr.Wrap(err, "parsing response from %s", url)
	}
	return nil
}

// do performs one rate-limited HTTP request and returns the body and status.
func (c *Client) do(ctx context.Context, method, url string, payload []byte, token string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx, url); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordAPICall(time.Since(start), err)
	if err != nil {
		return nil, 0, hberr.Wrap(err, "requesting %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
