package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/me/linsched/pkg/model"
)

// Client is an HTTP client for the linsched API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a linsched API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// apiResponse is the parsed envelope. NoContent is set for 204 replies,
// which carry no envelope.
type apiResponse struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
	NoContent bool            `json:"-"`
}

// send performs an HTTP request and returns the status code and raw body.
func (c *Client) send(method, path string, body any) (int, []byte, error) {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.Logger.Debug("HTTP request body", "body", string(data))
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("HTTP request", "method", method, "url", url)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(respBody))
	return resp.StatusCode, respBody, nil
}

// do performs an HTTP request and returns the parsed envelope.
func (c *Client) do(method, path string, body any) (*apiResponse, error) {
	status, respBody, err := c.send(method, path, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return &apiResponse{Status: "ok", NoContent: true}, nil
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w\nbody: %s", status, err, string(respBody))
	}

	if apiResp.Status == "error" && apiResp.Error != nil {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) (*apiResponse, error) {
	return c.do(http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(path string, body any) (*apiResponse, error) {
	return c.do(http.MethodPost, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(path string) (*apiResponse, error) {
	return c.do(http.MethodDelete, path, nil)
}

// GetRaw performs a GET request for a non-envelope payload such as CSV. A
// nil slice with no error means the server had nothing to return.
func (c *Client) GetRaw(path string) ([]byte, error) {
	status, body, err := c.send(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNoContent:
		return nil, nil
	case status >= http.StatusBadRequest:
		return nil, fmt.Errorf("GET %s: status %d: %s", path, status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// WebSocketURL returns the ws:// or wss:// form of the server URL plus path.
func (c *Client) WebSocketURL(path string) string {
	base := c.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}
