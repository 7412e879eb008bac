// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// HTTPTransport is the net/http Transport. Non-2xx responses are returned
// as responses, not errors: the envelope decides the outcome of a call.
type HTTPTransport struct {
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPTransport creates a transport with its own *http.Client.
func NewHTTPTransport(cfg TransportConfig) *HTTPTransport {
	return &HTTPTransport{
		client: newHTTPClient(cfg),
		log:    cfg.Logger,
	}
}

// NewHTTPTransportFromClient wraps an existing *http.Client.
func NewHTTPTransportFromClient(c *http.Client) *HTTPTransport {
	return &HTTPTransport{client: c, log: zerolog.Nop()}
}

func httpFactory(cfg TransportConfig) (Transport, error) {
	return NewHTTPTransport(cfg), nil
}

// newHTTPClient creates an HTTP client from the transport config.
// DisableKeepAlives turns off connection reuse, which avoids EOF errors
// behind proxies that silently drop idle connections.
func newHTTPClient(cfg TransportConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = cfg.DisableKeepAlives
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// Fetch issues req and reads the whole response body.
func (t *HTTPTransport) Fetch(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}
	defer CleanlyCloseBody(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Msg("http response")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
