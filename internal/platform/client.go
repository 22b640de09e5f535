// Package platform is the REST client for the Databricks workspace APIs the
// review job depends on: trace search, managed datasets, label schemas,
// labeling sessions, SQL statement execution, and the secret store.
//
// The backing services are opaque; this package only shapes requests and
// decodes responses. Calls are synchronous and are not retried; a failed
// step fails the run.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/btbeal-db/agent-eval-request-job/internal/pkg/errors"
)

// Config holds the configuration for the workspace client.
type Config struct {
	// Host is the workspace URL, e.g. https://acme.cloud.databricks.com.
	Host string

	// Token is the personal access token used as a bearer credential.
	Token string

	// WarehouseID is the SQL warehouse used for schema DDL.
	WarehouseID string

	// Version is the build version reported in the User-Agent header.
	// Defaults to "dev".
	Version string

	// Timeout is the per-request timeout. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client talks to the workspace REST API.
type Client struct {
	config     Config
	userAgent  string
	httpClient *http.Client
}

// New creates a new workspace client.
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	return &Client{
		config:    config,
		userAgent: "agent-eval-request-job/" + config.Version,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// do issues a JSON request against the workspace API and decodes the
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.config.Host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.External(fmt.Sprintf("%s %s failed", method, path), 0).WithError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.External(fmt.Sprintf("%s %s: read response", method, path), resp.StatusCode).WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(method, path, resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}

	return nil
}

// apiError shapes a non-2xx response into an AppError, surfacing the
// server's own message when it sends one.
func (c *Client) apiError(method, path string, status int, body []byte) error {
	var apiErr struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}

	msg := fmt.Sprintf("%s %s returned status %d", method, path, status)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, apiErr.Message)
	}

	if status == http.StatusNotFound {
		e := apperrors.NotFound(path)
		e.StatusCode = status
		return e
	}

	return apperrors.External(msg, status)
}
