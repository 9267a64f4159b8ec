// Package antispam talks to the external content-reputation service.
package antispam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Query struct {
	IP      string `json:"ip"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type verdict struct {
	Allow *bool `json:"allow"`
}

// Checker is the interface the gate depends on.
type Checker interface {
	Allow(ctx context.Context, apiKey string, q Query) (bool, error)
}

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// Allow reports the service's verdict. Any error means the verdict is
// unknown: network failure, non-2xx status or an undecodable body.
func (c *Client) Allow(ctx context.Context, apiKey string, q Query) (bool, error) {
	if c.url == "" {
		return false, fmt.Errorf("antispam url not configured")
	}
	body, err := json.Marshal(q)
	if err != nil {
		return false, fmt.Errorf("encode antispam query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build antispam request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("antispam request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("antispam status %d", resp.StatusCode)
	}
	var v verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&v); err != nil {
		return false, fmt.Errorf("decode antispam response: %w", err)
	}
	if v.Allow == nil {
		return false, fmt.Errorf("antispam response missing allow")
	}
	return *v.Allow, nil
}
