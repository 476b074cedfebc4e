// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/bureau-foundation/chatdesk/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the server root, e.g. "https://chat.example.com".
	// Request paths (all beginning with /api) are appended to it.
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// UserAgent is sent with every request when set.
	UserAgent string
}

// Client is an unauthenticated chat client. It holds the server URL
// and HTTP transport, shared by every Session derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a new unauthenticated client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("messaging: BaseURL is required")
	}

	// Request URLs are built by concatenation onto the string form, so
	// only the structure is validated here.
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: BaseURL %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		userAgent:  config.UserAgent,
	}, nil
}

// BaseURL returns the server root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections closes idle connections in the transport pool.
// Call it after a network change so later requests dial fresh.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login authenticates with a user id and password and returns a
// session bound to the issued token along with the signed-in user.
func (c *Client) Login(ctx context.Context, uid, password string) (*DirectSession, *LoginResponse, error) {
	if uid == "" {
		return nil, nil, fmt.Errorf("messaging: uid is required for login")
	}
	if password == "" {
		return nil, nil, fmt.Errorf("messaging: password is required for login")
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/login", "", LoginRequest{UID: uid, Password: password})
	if err != nil {
		return nil, nil, fmt.Errorf("messaging: login failed: %w", err)
	}

	var response LoginResponse
	if err := json.Unmarshal(unwrapEnvelope(body), &response); err != nil {
		return nil, nil, fmt.Errorf("messaging: failed to parse login response: %w", err)
	}
	if response.Token == "" {
		return nil, nil, fmt.Errorf("messaging: login response carried no token")
	}

	c.logger.Info("logged in",
		"uid", response.User.UID,
		"user_id", response.User.ID,
		"role", response.User.Role,
	)
	return c.SessionFromToken(response.Token), &response, nil
}

// SessionFromToken creates a DirectSession from a stored token. The
// token is not validated; call Me to check it.
func (c *Client) SessionFromToken(token string) *DirectSession {
	return &DirectSession{client: c, token: token}
}

// doRequest performs a JSON request and returns the response body.
// On 2xx it returns the body unless the envelope says success:false.
// On any other status it returns an *APIError. token may be empty for
// unauthenticated endpoints; query may be omitted.
func (c *Client) doRequest(ctx context.Context, method, path, token string, requestBody any, query ...url.Values) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	response, err := c.send(ctx, method, path, token, bodyReader, query...)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, c.apiError(method, path, response.StatusCode, responseBody)
	}
	if message, failed := envelopeFailure(responseBody); failed {
		return nil, &APIError{
			StatusCode:    response.StatusCode,
			Message:       ClassifyStatus(response.StatusCode),
			ServerMessage: message,
			Method:        method,
			Path:          path,
		}
	}
	return responseBody, nil
}

// send issues one request with the standard headers. The caller owns
// the response body.
func (c *Client) send(ctx context.Context, method, path, token string, body io.Reader, query ...url.Values) (*http.Response, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", requestID)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"request_id", requestID,
	)
	return response, nil
}

func (c *Client) apiError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode:    status,
		Message:       ClassifyStatus(status),
		ServerMessage: serverMessage(body),
		Method:        method,
		Path:          path,
	}
	c.logger.Debug("request failed",
		"method", method,
		"path", path,
		"status", status,
		"server_message", apiErr.ServerMessage,
	)
	return apiErr
}
