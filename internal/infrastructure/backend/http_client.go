// Package backend talks to the question-answering service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// HTTPClient posts questions to {BaseURL}{QueryPath}.
type HTTPClient struct {
	baseURL    string
	queryPath  string
	httpClient *http.Client
	logger     ports.Logger
}

// NewHTTPClient builds a client from backend settings.
func NewHTTPClient(settings domain.BackendSettings, log ports.Logger) *HTTPClient {
	timeout := domain.DefaultBackendTimeout
	if d, err := time.ParseDuration(settings.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(defaultString(settings.BaseURL, domain.DefaultBackendURL), "/"),
		queryPath:  normalizePath(defaultString(settings.QueryPath, domain.DefaultQueryPath)),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// WithHTTPClient swaps the underlying *http.Client (tests, custom transports).
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.httpClient = client
	return c
}

// Endpoint is the full URL questions are posted to.
func (c *HTTPClient) Endpoint() string {
	return c.baseURL + c.queryPath
}

// BaseURL is the backend root, used by diagnostics.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Query implements ports.QueryBackend.
func (c *HTTPClient) Query(ctx context.Context, question string) (domain.QueryResponse, error) {
	body, err := json.Marshal(domain.QueryRequest{Question: question})
	if err != nil {
		return domain.QueryResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return domain.QueryResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.QueryResponse{}, err
	}
	defer resp.Body.Close()

	c.logger.Debug("backend responded", map[string]interface{}{
		"endpoint":    c.Endpoint(),
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return domain.QueryResponse{}, &domain.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return domain.QueryResponse{}, fmt.Errorf("read response: %w", err)
	}

	return DecodeResponse(responseBody.Bytes())
}

// Probe issues a GET against the backend root. Any HTTP response means the
// service is reachable.
func (c *HTTPClient) Probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, nil
}

// DecodeResponse parses a /query response body. Invalid JSON and a bare null
// are errors; any other valid body that is not an object decodes to an empty
// response.
func DecodeResponse(body []byte) (domain.QueryResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return domain.QueryResponse{}, fmt.Errorf("decode response: invalid JSON body (%d bytes)", len(trimmed))
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return domain.QueryResponse{}, fmt.Errorf("decode response: body is null")
	}
	if trimmed[0] != '{' {
		return domain.QueryResponse{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return domain.QueryResponse{}, fmt.Errorf("decode response: %w", err)
	}
	out := domain.QueryResponse{
		Summary:    fields["summary"],
		DataResult: fields["data_result"],
	}
	if raw, ok := fields["question"]; ok {
		_ = json.Unmarshal(raw, &out.Question)
	}
	return out, nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var _ ports.QueryBackend = (*HTTPClient)(nil)
