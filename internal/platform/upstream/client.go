// Package upstream is the shared HTTP client for the platform microservices
// behind the admin gateway. It stamps claim headers, decodes JSON envelopes
// and maps upstream failures onto the gateway's sentinel errors.
package upstream

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

	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Client talks to one upstream service.
type Client struct {
	service string
	baseURL string
	http    *http.Client
}

// New constructs a Client for the named service.
func New(service, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Get performs a GET and decodes the JSON body into out when non-nil.
func (c *Client) Get(ctx context.Context, id shared.Identity, path string, query url.Values, out any) error {
	return c.do(ctx, id, http.MethodGet, path, query, nil, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, id shared.Identity, path string, body, out any) error {
	return c.do(ctx, id, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, id shared.Identity, path string, body, out any) error {
	return c.do(ctx, id, http.MethodPut, path, nil, body, out)
}

// Patch performs a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, id shared.Identity, path string, body, out any) error {
	return c.do(ctx, id, http.MethodPatch, path, nil, body, out)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, id shared.Identity, path string) error {
	return c.do(ctx, id, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, id shared.Identity, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream %s: encode body: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("upstream %s: build request: %w", c.service, err)
	}
	id.ApplyClaimHeaders(req.Header)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s: %w: %v", c.service, httpx.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("upstream %s: decode response: %w", c.service, err)
		}
		return nil
	}

	return c.mapError(resp)
}

// mapError converts an upstream failure status into a sentinel, preserving
// the problem detail when the upstream speaks RFC7807.
func (c *Client) mapError(resp *http.Response) error {
	detail := ""
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&problem); err == nil {
		detail = problem.Detail
		if detail == "" {
			detail = problem.Title
		}
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		sentinel = httpx.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = httpx.ErrDuplicate
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		sentinel = httpx.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		sentinel = httpx.ErrForbidden
	default:
		sentinel = httpx.ErrUnavailable
	}
	return fmt.Errorf("upstream %s: %s: %w", c.service, detail, sentinel)
}
