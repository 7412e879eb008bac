// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Transport types
const (
	TransportHTTP    = "http"    // net/http, default
	TransportJSONRPC = "jsonrpc" // JSON-RPC 2.0 bridge
	TransportGRPC    = "grpc"    // gRPC relay, requires build tag
)

// DefaultTransport is the transport NewFromConfig uses when none is named.
const DefaultTransport = TransportHTTP

// Request is what the client hands to a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is nil for queries.
	Body []byte

	// Path and Args repeat what URL and Body encode, for transports that
	// carry the call over another protocol. Args is nil when no arguments
	// were passed.
	Path string
	Args json.RawMessage
}

// Response is a fully read transport response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Transport executes a single request. Implementations must read and
// release the underlying response body before returning.
type Transport interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc is a function adapter for Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// TransportConfig configures the builtin transports.
type TransportConfig struct {
	// Endpoint is the upstream address for bridge transports: the JSON-RPC
	// URL for "jsonrpc", the dial target for "grpc".
	Endpoint          string
	Timeout           time.Duration
	DisableKeepAlives bool
	Logger            zerolog.Logger
}

type transportFactory func(cfg TransportConfig) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportFactory{
		TransportHTTP:    httpFactory,
		TransportJSONRPC: jsonRPCFactory,
	}
)

// registerTransport registers a new transport (used by build tags)
func registerTransport(name string, factory transportFactory) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = factory
}

// NewTransport builds the named transport.
func NewTransport(name string, cfg TransportConfig) (Transport, error) {
	transportsMu.RLock()
	factory, ok := transports[name]
	transportsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
	return factory(cfg)
}

// AvailableTransports returns the sorted list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	_, ok := transports[name]
	return ok
}
