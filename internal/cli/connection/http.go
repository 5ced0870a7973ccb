package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/infra/buildinfo"
	"github.com/yndnr/scuttlekit-go/internal/server/httpserver/handler"
)

// DefaultServer is the gateway address used when none is configured.
const DefaultServer = "localhost:1103"

// HTTPClient talks to a ScuttleKit gateway.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client for server. token, if set, is sent as a
// bearer credential.
func NewHTTPClient(server, token string) *HTTPClient {
	if server == "" {
		server = DefaultServer
	}
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "scuttlekit-cli/"+buildinfo.Version)

	return c.client.Do(req)
}

// Register submits an app registration and returns the issued token.
func (c *HTTPClient) Register(ctx context.Context, params *domain.RegistrationParams) (*handler.RegisterResponse, error) {
	resp, err := c.Post(ctx, "/register", params)
	if err != nil {
		return nil, err
	}
	var out handler.RegisterResponse
	if err := ParseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the gateway whether tok is currently valid.
func (c *HTTPClient) Validate(ctx context.Context, tok string) (bool, error) {
	resp, err := c.Post(ctx, "/validate", handler.ValidateRequest{Token: tok})
	if err != nil {
		return false, err
	}
	var out handler.ValidateResponse
	if err := ParseResponse(resp, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// Health queries GET /health or GET /ready. A 503 from /ready is decoded
// rather than treated as a transport failure.
func (c *HTTPClient) Health(ctx context.Context, path string) (*handler.HealthResponse, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out handler.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

// APIError is a decoded error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches domain errors by code, so callers can use errors.Is with the
// domain sentinels.
func (e *APIError) Is(target error) bool {
	var de *domain.DomainError
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

// ParseResponse decodes a JSON response into target, or returns an
// *APIError for 4xx/5xx statuses. It closes the body.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope handler.Response
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
			apiErr.RequestID = envelope.RequestID
		}
		return apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
