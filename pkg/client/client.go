// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is a Go client for the gateway HTTP API. Reads follow the
// cross-node redirects issued by gateways that do not hold an object.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 10

	apiKeyHeader = "X-API-Key"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrTooManyRedirects = errors.New("too many redirects")
)

// APIError is a non-2xx response from a gateway.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("gateway returned %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type Config struct {
	// BaseURL of any gateway node, e.g. http://localhost:3001.
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxRedirects bounds the hops followed for one request.
	MaxRedirects int
}

type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	apiKey       string
	maxRedirects int
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	if !strings.Contains(cfg.BaseURL, "://") {
		cfg.BaseURL = "http://" + cfg.BaseURL
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL '%s': %w", cfg.BaseURL, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		apiKey:       cfg.APIKey,
		maxRedirects: cfg.MaxRedirects,
	}, nil
}

// do sends a request and follows redirects itself so the API key and the
// method survive every hop. The returned response is 2xx; its body must be
// closed by the caller.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	current, err := c.baseURL.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL for %s: %w", path, err)
	}

	for hop := 0; hop <= c.maxRedirects; hop++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, current.String(), reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request %s %s: %w", method, current, err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request %s %s failed: %w", method, current, err)
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
			http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			if loc == "" {
				return nil, fmt.Errorf("redirect (status %d) missing Location header from %s", resp.StatusCode, current)
			}
			next, err := current.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("failed to parse redirect Location '%s': %w", loc, err)
			}
			logger.Debug().
				Str("from", current.String()).
				Str("to", next.String()).
				Int("status", resp.StatusCode).
				Msg("following redirect")
			current = next
			continue
		}

		if err := checkResponse(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w: stopped after %d hops, last URL %s", ErrTooManyRedirects, c.maxRedirects, current)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body for %s %s: %w", method, path, err)
		}
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body from %s: %w", resp.Request.URL, err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	}
	return apiErr
}

func objectPath(bucket, key string) string {
	return "/api/buckets/" + url.PathEscape(bucket) + "/files/" + url.PathEscape(key)
}
