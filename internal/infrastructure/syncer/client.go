package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the remote store client.
type ClientConfig struct {
	// BaseURL is the remote store base URL.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// BeaconTimeout bounds the fire-and-forget fallback request.
	BeaconTimeout time.Duration

	// CircuitBreakerConfig guards against hammering a failing store.
	CircuitBreakerConfig circuitbreaker.Config

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              15 * time.Second,
		BeaconTimeout:        3 * time.Second,
		CircuitBreakerConfig: circuitbreaker.DefaultConfig("progress-store"),
	}
}

// APIEnvelope is the response wrapper used by every remote endpoint.
type APIEnvelope[T any] struct {
	Success  bool   `json:"success"`
	Data     T      `json:"data"`
	Message  string `json:"message"`
	SyncTime string `json:"syncTime,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the remote progress store.
// All calls are bearer-authenticated except the beacon fallback, which
// carries the token in the URL because it cannot set custom headers.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a remote store client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.BeaconTimeout <= 0 {
		config.BeaconTimeout = 3 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    circuitbreaker.New(config.CircuitBreakerConfig),
		logger:     config.Logger,
	}
}

// FetchProgress loads the current server snapshot.
func (c *Client) FetchProgress(ctx context.Context, token string) (*Payload, error) {
	var envelope APIEnvelope[Payload]
	if err := c.doRequest(ctx, http.MethodGet, "/api/progress", token, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("fetch progress: api error: %s", envelope.Message)
	}

	payload := envelope.Data
	payload.Normalize()
	return &payload, nil
}

// SaveProgress overwrites the server snapshot with the client payload.
func (c *Client) SaveProgress(ctx context.Context, token string, payload Payload) error {
	var envelope APIEnvelope[json.RawMessage]
	if err := c.doRequest(ctx, http.MethodPost, "/api/progress", token, payload, &envelope); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("save progress: api error: %s", envelope.Message)
	}
	return nil
}

// syncRequest is the body of the bidirectional reconciliation endpoint.
type syncRequest struct {
	ClientProgress Payload `json:"clientProgress"`
	LastSyncTime   string  `json:"lastSyncTime,omitempty"`
}

// SyncProgress performs bidirectional reconciliation.
// The server response is authoritative and should be applied locally.
func (c *Client) SyncProgress(ctx context.Context, token string, payload Payload, lastSyncTime string) (*Payload, error) {
	req := syncRequest{ClientProgress: payload, LastSyncTime: lastSyncTime}

	var envelope APIEnvelope[Payload]
	if err := c.doRequest(ctx, http.MethodPost, "/api/progress/sync", token, req, &envelope); err != nil {
		return nil, fmt.Errorf("sync progress: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("sync progress: api error: %s", envelope.Message)
	}

	merged := envelope.Data
	merged.Normalize()
	return &merged, nil
}

// doRequest executes one authenticated JSON request through the breaker.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, out any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			// Terminal for this attempt: no refresh flow, no retry.
			return shared.ErrUnauthorized
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
		}
		return nil
	})
}

// BeaconSave is the fire-and-forget fallback transport used when the
// primary write cannot complete (host teardown). The fallback channel
// cannot set custom headers, so the token travels in the URL. The request
// runs detached; errors are logged and otherwise dropped.
func (c *Client) BeaconSave(data []byte, token string) {
	target := c.config.BaseURL + "/api/progress?token=" + url.QueryEscape(token)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.BeaconTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
		if err != nil {
			c.logger.Warn("beacon save failed to build request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("beacon save failed", "error", err)
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
}
