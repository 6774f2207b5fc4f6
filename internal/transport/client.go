// Package transport executes routed HTTP calls against provider APIs and maps transport
// failures onto the error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/router"
)

// Request is one provider call
type Request struct {
	Method  string
	URL     string
	Service router.Service
	Headers map[string]string
	Body    any
}

// Response is a raw provider response
type Response struct {
	StatusCode int
	Body       []byte
	Mode       router.Mode
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client sends requests through a Router. A single attempt is made per call.
type Client struct {
	httpClient *http.Client
	router     *router.Router
}

// NewClient creates a Client. A nil httpClient gets a 30s timeout client.
func NewClient(httpClient *http.Client, r *router.Router) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, router: r}
}

// Router returns the router used for service calls
func (c *Client) Router() *router.Router {
	return c.router
}

// Do executes req and returns the raw response without interpreting its status
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	target := req.URL
	headers := req.Headers
	mode := router.ModeDirect
	if req.Service != "" && c.router != nil {
		route, err := c.router.Route(ctx, req.URL, req.Service, req.Headers)
		if err != nil {
			return nil, err
		}
		target, headers, mode = route.URL, route.Headers, route.Mode
		if mode == router.ModeProxied {
			headers[router.HeaderMethod] = req.Method
		}
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to encode request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"service": string(req.Service),
		"mode":    string(mode),
	})
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.WithError(err).Warn("provider request failed")
		return nil, fnerrors.NewDefaultError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to read response: %w", err))
	}

	logger.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("provider request completed")

	return &Response{StatusCode: resp.StatusCode, Body: data, Mode: mode}, nil
}

// Fetch executes req and fails with NETWORK_ERROR on a non-2xx status
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fnerrors.NewNetworkError(resp.StatusCode)
	}
	return resp.Body, nil
}

// GetJSON fetches rawURL through service and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, rawURL string, service router.Service, headers map[string]string, out any) error {
	body, err := c.Fetch(ctx, Request{URL: rawURL, Service: service, Headers: headers})
	if err != nil {
		return err
	}
	return Decode(body, out)
}

// Decode unmarshals a provider body
func Decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fnerrors.NewDefaultError(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
