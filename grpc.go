//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

const (
	relayServiceName = "httprpc.Relay"
	relayFetchMethod = "/httprpc.Relay/Fetch"
	relayCodecName   = "httprpc-json"
)

func init() {
	// Register gRPC transport when build tag is enabled
	encoding.RegisterCodec(relayCodec{})
	registerTransport(TransportGRPC, dialGRPC)
}

// relayCodec carries Request and Response values as JSON.
type relayCodec struct{}

func (relayCodec) Marshal(v any) ([]byte, error)      { return defaultCodec.Encode(v) }
func (relayCodec) Unmarshal(data []byte, v any) error { return defaultCodec.Decode(data, v) }
func (relayCodec) Name() string                       { return relayCodecName }

// GRPCTransport sends envelope calls through a relay registered with
// RegisterRelay. The relay performs the HTTP request, so Request.URL must
// be reachable from the relay host.
type GRPCTransport struct {
	conn *grpc.ClientConn
	log  zerolog.Logger
}

// NewGRPCTransport creates a relay transport on an existing connection.
func NewGRPCTransport(conn *grpc.ClientConn) *GRPCTransport {
	return &GRPCTransport{conn: conn, log: zerolog.Nop()}
}

func dialGRPC(cfg TransportConfig) (Transport, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httprpc: %s transport requires an endpoint", TransportGRPC)
	}
	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCTransport{conn: conn, log: cfg.Logger}, nil
}

func (t *GRPCTransport) Fetch(ctx context.Context, req *Request) (*Response, error) {
	res := new(Response)
	err := t.conn.Invoke(ctx, relayFetchMethod, req, res, grpc.CallContentSubtype(relayCodecName))
	if err != nil {
		return nil, fmt.Errorf("grpc relay: %w", err)
	}
	t.log.Debug().
		Str("path", req.Path).
		Int("status", res.StatusCode).
		Msg("grpc relay response")
	return res, nil
}

// Close closes the underlying connection.
func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}

// RegisterRelay serves the relay method on s, forwarding every request to
// next. Failures of next are returned as codes.Unavailable.
func RegisterRelay(s *grpc.Server, next Transport) {
	s.RegisterService(&relayServiceDesc, next)
}

var relayServiceDesc = grpc.ServiceDesc{
	ServiceName: relayServiceName,
	HandlerType: (*Transport)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fetch", Handler: relayFetchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "httprpc/grpc.go",
}

func relayFetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		res, err := srv.(Transport).Fetch(ctx, req.(*Request))
		if err != nil {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return res, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: relayFetchMethod,
	}
	return interceptor(ctx, in, info, handler)
}
