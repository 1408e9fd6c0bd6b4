// Package remote talks to the Remote Workflow Service REST API.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rflorenc/workflow-transfer-workbench/internal/config"
)

// StatusError is returned for any non-2xx answer from the service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, truncate(string(e.Body), 200))
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ErrorMessage extracts the service's {"error": "..."} text from err when
// there is one, falling back to err.Error().
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(se.Body, &body) == nil {
			if body.Error != "" {
				return body.Error
			}
			if body.Message != "" {
				return body.Message
			}
		}
	}
	return err.Error()
}

// Client is an authenticated HTTP client for the workflow service.
type Client struct {
	baseURL    string
	auth       config.AuthConfig
	httpClient *http.Client
}

// NewClient creates a Client from the service section of the config.
func NewClient(svc config.ServiceConfig) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if svc.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if svc.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(svc.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	c := &Client{
		baseURL: strings.TrimRight(svc.BaseURL, "/"),
		auth:    svc.Auth,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   svc.Timeout,
		},
	}
	c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Re-apply auth on redirects
		if len(via) > 0 {
			c.authorize(req)
		}
		return nil
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) authorize(req *http.Request) {
	switch c.auth.Type {
	case config.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.auth.Token)
	case config.AuthBasic:
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	case config.AuthAPIKey:
		header := c.auth.APIKeyHeader
		if header == "" {
			header = config.DefaultAPIKeyHeader
		}
		req.Header.Set(header, c.auth.APIKey)
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, int, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: body}
	}
	return body, resp.StatusCode, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, _, err := c.do(ctx, http.MethodGet, path, params, nil)
	return body, err
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// PostJSON posts payload and unmarshals a 2xx answer into dest.
func (c *Client) PostJSON(ctx context.Context, path string, payload, dest interface{}) (int, error) {
	body, code, err := c.Post(ctx, path, payload)
	if err != nil {
		return code, err
	}
	if dest != nil && len(body) > 0 {
		if err := json.Unmarshal(body, dest); err != nil {
			return code, fmt.Errorf("parsing response: %w", err)
		}
	}
	return code, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
