package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JourneyJu/dsg-sub010/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single catalog API request
const DefaultTimeout = 30 * time.Second

// HTTPClient talks to a catalog API serving the envelope wire format
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// HTTPOption configures an HTTPClient
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithHTTPLogger sets the logger
func WithHTTPLogger(logger *zap.Logger) HTTPOption {
	return func(h *HTTPClient) { h.logger = logger }
}

// NewHTTPClient creates a client for the API rooted at baseURL,
// e.g. "http://localhost:8080".
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("catalog api url cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid catalog api url %q: scheme must be http or https", baseURL)
	}

	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// RecordsPath returns the API path of a source's record set
func RecordsPath(sourceID string) string {
	return "/api/v1/sources/" + url.PathEscape(sourceID) + "/records"
}

// FetchRecords implements Client
func (h *HTTPClient) FetchRecords(ctx context.Context, sourceID string) ([]types.RawRecord, error) {
	var payload RecordsPayload
	if err := h.do(ctx, http.MethodGet, RecordsPath(sourceID), nil, &payload); err != nil {
		return nil, err
	}
	h.logger.Debug("fetched records", zap.String("source", sourceID), zap.Int("count", len(payload.Records)))
	return payload.Records, nil
}

// SubmitRecords implements Client
func (h *HTTPClient) SubmitRecords(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error) {
	var result types.SubmitResult
	body := SubmitPayload{Records: records}
	if err := h.do(ctx, http.MethodPut, RecordsPath(sourceID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (h *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog api request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// not an envelope, e.g. a proxy error page
		if resp.StatusCode != http.StatusOK {
			return &APIError{Status: resp.StatusCode, Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Code != CodeOK || resp.StatusCode >= 300 {
		code := env.Code
		if code == CodeOK {
			code = resp.StatusCode
		}
		h.logger.Debug("catalog api error",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode), zap.Int("code", code))
		return &APIError{Status: resp.StatusCode, Code: code, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
