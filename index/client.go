// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"
)

const (
	DefaultPort           = 443
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond

	maxRetryDelay = 10 * time.Second
)

// ClientConfig describes how to reach the cluster.
type ClientConfig struct {
	// Endpoint is the domain endpoint host, without scheme.
	Endpoint string
	Port     int

	Username string
	Password string

	// Timeout bounds each request, retries included.
	Timeout time.Duration

	MaxRetries     int
	RetryOnTimeout bool
	RetryBaseDelay time.Duration

	// Addresses replaces the https://Endpoint:Port address when set.
	Addresses []string

	// Transport replaces the default HTTP transport when set.
	Transport http.RoundTripper
}

// DefaultClientConfig returns the connection settings the domain expects:
// TLS on 443, a 30 second timeout and three retries including timeouts.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryOnTimeout: true,
		RetryBaseDelay: DefaultRetryBaseDelay,
	}
}

func (c ClientConfig) addresses() []string {
	if len(c.Addresses) > 0 {
		return c.Addresses
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return []string{"https://" + net.JoinHostPort(c.Endpoint, strconv.Itoa(port))}
}

// Client wraps an opensearch-go client with per-request timeouts and
// response decoding.
type Client struct {
	api     *opensearch.Client
	timeout time.Duration
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the cluster described by cfg. Start from
// DefaultClientConfig; a zero Timeout or RetryBaseDelay takes its default and
// MaxRetries of zero disables retries.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.Endpoint == "" && len(cfg.Addresses) == 0 {
		return nil, ErrEndpointRequired
	}

	defaults := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaults.RetryBaseDelay
	}

	api, err := opensearch.NewClient(opensearch.Config{
		Addresses:            cfg.addresses(),
		Username:             cfg.Username,
		Password:             cfg.Password,
		Transport:            cfg.Transport,
		MaxRetries:           cfg.MaxRetries,
		DisableRetry:         cfg.MaxRetries == 0,
		EnableRetryOnTimeout: cfg.RetryOnTimeout,
		RetryBackoff:         Backoff(cfg.RetryBaseDelay, maxRetryDelay),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	c := &Client{
		api:     api,
		timeout: cfg.Timeout,
		logger:  slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Backoff returns the retry interval function handed to the client:
// base doubled for each attempt after the first, capped at limit.
func Backoff(base, limit time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		delay := base
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= limit {
				return limit
			}
		}
		return delay
	}
}

// do sends req with the client timeout and decodes a 2xx body into out.
// Non-2xx answers become *ResponseError.
func (c *Client) do(ctx context.Context, op string, req opensearchapi.Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := req.Do(ctx, c.api)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var body []byte
	if res.Body != nil {
		defer res.Body.Close()
		body, err = io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("%s: failed to read response: %w", op, err)
		}
	}

	if res.IsError() {
		return &ResponseError{Op: op, StatusCode: res.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
