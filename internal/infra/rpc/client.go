// Package rpc implements a minimal JSON-RPC 2.0 client over HTTP POST,
// the only wire protocol the probed nodes are expected to speak.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBadResponse marks a syntactically valid HTTP response whose body is
// neither a JSON-RPC result nor a JSON-RPC error.
var ErrBadResponse = errors.New("response has neither result nor error")

// Error is a JSON-RPC error object returned by the remote node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc error (code %d)", e.Code)
	}
	return fmt.Sprintf("rpc error: %s", e.Message)
}

// Client makes JSON-RPC calls against a single endpoint URL.
type Client struct {
	name       string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for one endpoint. The timeout bounds every
// individual call, including connection setup and body read.
func NewClient(name, endpoint string, timeout time.Duration) *Client {
	return &Client{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name returns the logical endpoint name the client was built for.
func (c *Client) Name() string {
	return c.name
}

// Call makes a single JSON-RPC 2.0 call and returns the raw result field.
// A remote error object is returned as *Error; a well-formed response with
// neither field wraps ErrBadResponse. One call is one attempt, no retries.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", errors.Join(ErrBadResponse, err))
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	if rpcResp.Result == nil {
		return nil, fmt.Errorf("%s: %w", method, ErrBadResponse)
	}

	return rpcResp.Result, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
