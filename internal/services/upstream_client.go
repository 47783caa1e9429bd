package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Provider names used in logs and errors
const (
	ProviderHeygen = "heygen"
	ProviderOpenAI = "openai"
	ProviderChroma = "chroma"
)

// UpstreamRequest describes one outbound provider call
type UpstreamRequest struct {
	Operation string            // Short name used in logs and errors
	Provider  string            // One of the Provider* constants
	Method    string            // Defaults to POST
	URL       string            // Fully qualified endpoint
	Headers   map[string]string // Credential header and extras
	Body      interface{}       // nil, json.RawMessage, or any JSON-marshalable value
}

// UpstreamResponse is the provider's status and JSON body, unchanged
type UpstreamResponse struct {
	Status int
	Body   json.RawMessage
}

// Upstream defines the interface for provider communication
type Upstream interface {
	Send(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error)
	SendExpectSuccess(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error)
}

// UpstreamClient performs single-attempt JSON calls to external providers
type UpstreamClient struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewUpstreamClient creates a client whose calls are bounded by timeout
func NewUpstreamClient(timeout time.Duration, logger zerolog.Logger) *UpstreamClient {
	return NewUpstreamClientWithHTTPClient(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}, logger)
}

// NewUpstreamClientWithHTTPClient creates a client around an existing http.Client
func NewUpstreamClientWithHTTPClient(httpClient *http.Client, logger zerolog.Logger) *UpstreamClient {
	return &UpstreamClient{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "upstream").Logger(),
	}
}

// BearerAuth returns the Authorization header for bearer-token providers
func BearerAuth(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

// APIKeyAuth returns the x-api-key header used by the avatar provider
func APIKeyAuth(key string) map[string]string {
	return map[string]string{"x-api-key": key}
}

// Send performs the call and returns whatever status the provider answered with.
// The body must be JSON; anything else is reported as malformed.
func (c *UpstreamClient) Send(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error) {
	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		e := NewUpstreamError(ErrMalformedUpstreamResponse, req.Operation, req.Provider,
			fmt.Errorf("response body is not JSON"))
		e.Status = status
		e.Body = truncate(string(body), 512)
		return nil, e
	}

	return &UpstreamResponse{Status: status, Body: json.RawMessage(body)}, nil
}

// SendExpectSuccess is Send for calls whose result is consumed by the relay:
// any non-2xx status is reported as ErrUpstreamRejected.
func (c *UpstreamClient) SendExpectSuccess(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error) {
	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		return nil, RejectedError(req.Operation, req.Provider, status, body)
	}

	if !json.Valid(body) {
		return nil, MalformedError(req.Operation, req.Provider, "response body is not JSON")
	}

	return &UpstreamResponse{Status: status, Body: json.RawMessage(body)}, nil
}

// do creates and executes one HTTP request. There is no retry.
func (c *UpstreamClient) do(ctx context.Context, req UpstreamRequest) (int, []byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	switch body := req.Body.(type) {
	case nil:
	case json.RawMessage:
		bodyReader = bytes.NewReader(body)
	case []byte:
		bodyReader = bytes.NewReader(body)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		RequestLogger(ctx, c.logger).Warn().Err(err).
			Str("operation", req.Operation).
			Str("provider", req.Provider).
			Dur("duration", time.Since(start)).
			Msg("upstream call failed")
		return 0, nil, NewUpstreamError(ErrUpstreamUnavailable, req.Operation, req.Provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, NewUpstreamError(ErrUpstreamUnavailable, req.Operation, req.Provider,
			fmt.Errorf("failed to read response: %w", err))
	}

	RequestLogger(ctx, c.logger).Debug().
		Str("operation", req.Operation).
		Str("provider", req.Provider).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream call completed")

	return resp.StatusCode, body, nil
}
