// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// HeaderFunc produces the headers for a single call. It is invoked once per
// Query or Mutate.
type HeaderFunc func() map[string]string

// Option configures a Client
type Option func(*options)

type options struct {
	headers   HeaderFunc
	onSuccess func(*Envelope)
	onError   func(*ClientError)
	codec     Codec
	logger    zerolog.Logger
}

// WithHeaders sets the per-call header producer. Content-Type is always
// overridden with application/json.
func WithHeaders(fn HeaderFunc) Option {
	return func(o *options) { o.headers = fn }
}

// WithStaticHeaders sends the same headers on every call.
func WithStaticHeaders(h map[string]string) Option {
	fixed := make(map[string]string, len(h))
	for k, v := range h {
		fixed[k] = v
	}
	return WithHeaders(func() map[string]string { return fixed })
}

// WithOnSuccess sets a hook called with the envelope of every successful call.
func WithOnSuccess(fn func(*Envelope)) Option {
	return func(o *options) { o.onSuccess = fn }
}

// WithOnError sets a hook called with every error before it is returned.
func WithOnError(fn func(*ClientError)) Option {
	return func(o *options) { o.onError = fn }
}

// WithCodec sets a custom codec
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithLogger sets the logger used for call tracing at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client calls procedures on a server speaking the envelope protocol.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	url       string
	transport Transport
	opts      options
	log       zerolog.Logger
}

// New creates a client for the router mounted at baseURL. No I/O happens
// here.
func New(baseURL string, transport Transport, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingURL
	}
	if transport == nil {
		return nil, ErrMissingTransport
	}

	o := options{
		codec:  defaultCodec,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == nil {
		o.codec = defaultCodec
	}

	return &Client{
		url:       baseURL,
		transport: transport,
		opts:      o,
		log:       o.logger.With().Str("component", "httprpc").Logger(),
	}, nil
}

// Query calls a read procedure with GET. Arguments, if any, travel as one
// JSON array in the "args" query parameter. It returns the envelope's data.
func (c *Client) Query(ctx context.Context, path string, args ...any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodGet, path, args)
}

// Mutate calls a write procedure with POST and a {"args": [...]} body.
// It returns the envelope's data.
func (c *Client) Mutate(ctx context.Context, path string, args ...any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, path, args)
}

// QueryAs is Query with the result decoded into T.
func QueryAs[T any](ctx context.Context, c *Client, path string, args ...any) (T, error) {
	data, err := c.Query(ctx, path, args...)
	return decodeData[T](c, data, err)
}

// MutateAs is Mutate with the result decoded into T.
func MutateAs[T any](ctx context.Context, c *Client, path string, args ...any) (T, error) {
	data, err := c.Mutate(ctx, path, args...)
	return decodeData[T](c, data, err)
}

func decodeData[T any](c *Client, data json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := c.opts.codec.Decode(data, &out); err != nil {
		return out, &ClientError{
			Kind:    KindProtocol,
			Message: fmt.Sprintf("decode data: %v", err),
			Err:     err,
		}
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, path string, args []any) (json.RawMessage, error) {
	start := time.Now()
	log := c.log.With().Str("operation", operation(method)).Str("path", path).Logger()

	req, err := c.newRequest(method, path, args)
	if err != nil {
		return nil, c.fail(log, normalizeError(KindRequest, err, nil))
	}
	log.Debug().Str("method", method).Str("url", req.URL).Msg("dispatching call")

	res, err := c.transport.Fetch(ctx, req)
	if err == nil && res == nil {
		err = errors.New("transport returned no response")
	}
	if err != nil {
		return nil, c.fail(log, normalizeError(KindTransport, err, nil))
	}

	env, kind, err := decodeEnvelope(res.Body)
	if err != nil {
		return nil, c.fail(log, normalizeError(kind, err, res))
	}
	if !env.OK {
		return nil, c.fail(log, newServerError(env, res))
	}

	if c.opts.onSuccess != nil {
		c.opts.onSuccess(env)
	}
	log.Debug().
		Int("status", res.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("call succeeded")
	return env.Data, nil
}

// fail reports err to the error hook and returns it.
func (c *Client) fail(log zerolog.Logger, err *ClientError) *ClientError {
	log.Debug().Err(err).Stringer("kind", err.Kind).Msg("call failed")
	if c.opts.onError != nil {
		c.opts.onError(err)
	}
	return err
}

func (c *Client) newRequest(method, path string, args []any) (*Request, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	var encoded json.RawMessage
	if len(args) > 0 {
		b, err := c.opts.codec.Encode(args)
		if err != nil {
			return nil, fmt.Errorf("encode args: %w", err)
		}
		encoded = b
	}

	req := &Request{
		Method: method,
		URL:    c.url + "/" + path,
		Header: c.headers(),
		Path:   path,
		Args:   encoded,
	}

	if method == http.MethodGet {
		if encoded != nil {
			req.URL += "?" + url.Values{"args": {string(encoded)}}.Encode()
		}
		return req, nil
	}

	list := encoded
	if list == nil {
		list = json.RawMessage("[]")
	}
	body, err := json.Marshal(struct {
		Args json.RawMessage `json:"args"`
	}{list})
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req.Body = body
	return req, nil
}

// headers merges the configured headers with the forced JSON content type.
func (c *Client) headers() http.Header {
	h := make(http.Header)
	if c.opts.headers != nil {
		for k, v := range c.opts.headers() {
			h.Set(k, v)
		}
	}
	h.Set("Content-Type", "application/json")
	return h
}

func operation(method string) string {
	if method == http.MethodGet {
		return "query"
	}
	return "mutate"
}
