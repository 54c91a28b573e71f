// Package storeapi is the HTTP client for the remote store platform. It is
// the only component that talks to the upstream; everything above it sees
// domain types and typed errors.
//
// Reads go through the circuit breaker, retry and bulkhead. Mutations are
// issued exactly once: a retried cart add could double an item.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("storeapi")

// Client wraps HTTP calls to the store platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storeSlug  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a store API client. baseURL is the platform root, e.g.
// https://api.example.com/api/v1; storeSlug selects the storefront.
func NewClient(httpClient *http.Client, baseURL, storeSlug string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		storeSlug:  storeSlug,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		logger:     logger,
	}
}

// storePath builds a store-scoped URL (/stores/s/{slug}/...).
func (c *Client) storePath(p string) string {
	return fmt.Sprintf("%s/stores/s/%s%s", c.baseURL, c.storeSlug, p)
}

// globalPath builds a platform-wide store URL (/stores/...).
func (c *Client) globalPath(p string) string {
	return fmt.Sprintf("%s/stores%s", c.baseURL, p)
}

// rootPath builds a platform root URL (auth, profiles).
func (c *Client) rootPath(p string) string {
	return c.baseURL + p
}

// upstreamError is the error envelope the platform uses across endpoints.
// Which field is populated depends on the endpoint and failure.
type upstreamError struct {
	NonFieldErrors []string `json:"non_field_errors"`
	Detail         string   `json:"detail"`
	ErrorMsg       string   `json:"error"`
	Email          []string `json:"email"`
	Password       []string `json:"password"`
}

// extractMessage pulls the first human-readable message out of an upstream
// error payload.
func extractMessage(body []byte) string {
	var e upstreamError
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case len(e.NonFieldErrors) > 0:
			return e.NonFieldErrors[0]
		case e.Detail != "":
			return e.Detail
		case e.ErrorMsg != "":
			return e.ErrorMsg
		case len(e.Email) > 0:
			return e.Email[0]
		case len(e.Password) > 0:
			return e.Password[0]
		}
	}
	return "request rejected by store"
}

// doRequest executes one request against the platform and maps the response
// status to a typed domain error. res labels the resource for logs and
// errors. An empty token sends the request unauthenticated.
func (c *Client) doRequest(ctx context.Context, method, url, token, res string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", res, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", res, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("storeapi: request failed",
			zap.String("method", method),
			zap.String("resource", res),
			zap.Error(err),
		)
		return nil, &domain.ErrUpstream{Endpoint: res, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrUpstream{Endpoint: res, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &domain.ErrUnauthorized{Message: extractMessage(body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.ErrNotFound{Resource: res, ID: url}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Warn("storeapi: request rejected",
			zap.String("method", method),
			zap.String("resource", res),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &domain.ErrRejected{Message: extractMessage(body)}
	case resp.StatusCode >= 500:
		c.logger.Warn("storeapi: upstream failure",
			zap.String("method", method),
			zap.String("resource", res),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.ErrUpstream{Endpoint: res, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	c.logger.Debug("storeapi: request OK",
		zap.String("method", method),
		zap.String("resource", res),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// getWithResilience runs an idempotent GET through the bulkhead, circuit
// breaker and retry loop, decoding the body into dest. Typed 4xx errors stop
// the retry loop immediately; only transport and 5xx failures are retried.
func (c *Client) getWithResilience(ctx context.Context, url, token, res string, dest any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var permErr error
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, url, token, res, nil)
			if err != nil {
				var upstream *domain.ErrUpstream
				if errors.As(err, &upstream) {
					return err
				}
				permErr = err
				return nil
			}
			permErr = nil
			if dest == nil {
				return nil
			}
			if err := json.Unmarshal(body, dest); err != nil {
				permErr = &domain.ErrUpstream{Endpoint: res, Err: fmt.Errorf("decode: %w", err)}
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "storeapi"}
		}
		return err
	}
	return permErr
}
