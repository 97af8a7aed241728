package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	defaultClientTimeout = 30 * time.Second

	// errorBodyLimit caps the response body carried inside an HTTPError.
	errorBodyLimit = 512
)

// HTTPDoer is the transport seam; satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies a bearer token for each outgoing request.
// Satisfied by *authflow.Broker.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client issues Graph API calls with per-call credentials and structured
// timing/outcome logging. It performs no retries; retry policy belongs to
// the callers that know which failures are worth repeating.
type Client struct {
	httpClient HTTPDoer
	tokens     TokenProvider
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Graph client. A nil httpClient falls back to a
// default client with a 30s timeout; a nil logger falls back to
// slog.Default().
func NewClient(httpClient HTTPDoer, tokens TokenProvider, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Do issues a single Graph request. body is JSON-encoded when non-nil.
// A 204 response yields a nil RawMessage; any non-2xx status yields an
// HTTPError carrying the status and a truncated body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return c.DoWithHeaders(ctx, method, path, body, nil)
}

// DoWithHeaders is Do with extra request headers, used for If-Match
// preconditions on conditional updates.
func (c *Client) DoWithHeaders(ctx context.Context, method, path string, body any, extra map[string]string) (json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("encode request body: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.Debug("graph call start", "method", method, "path", path)

	res, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("graph call failed",
			"method", method,
			"path", path,
			"elapsed", elapsed,
			"error", err,
		)
		return nil, NewConnectionError(fmt.Sprintf("graph request %s %s", method, path), err)
	}
	defer res.Body.Close()

	c.logger.Info("graph call complete",
		"method", method,
		"path", path,
		"elapsed", elapsed,
		"status", res.StatusCode,
	)

	if res.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Sprintf("read response %s %s", method, path), err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, NewHTTPError(
			fmt.Sprintf("graph %s %s returned %d", method, path, res.StatusCode),
			res.StatusCode,
			truncate(string(payload), errorBodyLimit),
		)
	}

	return payload, nil
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	payload, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(payload, out)
}

func decode(payload json.RawMessage, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return NewConnectionError("decode graph response", err)
	}
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
