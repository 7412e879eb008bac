// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package httprpc is a client for routers that expose queries and mutations
// over HTTP with a JSON response envelope.
//
// # Protocol
//
// Queries are GET requests, mutations are POST requests:
//
//	GET  {url}/{path}?args=<url-encoded JSON array>
//	POST {url}/{path}    {"args": [...]}
//
// Every request carries Content-Type: application/json. Every response body
// is an envelope discriminated by "ok":
//
//	{"ok": true,  "data": ...}
//	{"ok": false, "error": {"message": "...", "code": ...}}
//
// # Usage
//
//	client, err := httprpc.New("https://api.example.com/trpc",
//	    httprpc.NewHTTPTransport(httprpc.TransportConfig{}),
//	    httprpc.WithHeaders(func() map[string]string {
//	        return map[string]string{"Authorization": "Bearer " + token()}
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	todos, err := httprpc.QueryAs[[]Todo](ctx, client, "todo.list")
//	_, err = client.Mutate(ctx, "todo.add", Todo{Text: "write docs"})
//
// All failures are returned as *ClientError. Its Kind says whether the
// server answered with an error envelope, the transport failed, or the
// response could not be decoded.
//
// # Transports
//
// The network call is made by an injected Transport:
//
//   - http.go: net/http (default for NewFromConfig)
//   - jsonrpc.go: bridge to a JSON-RPC 2.0 endpoint
//   - grpc.go: relay through a gRPC server (requires -tags grpc)
//
// Transports are registered by name so that NewFromConfig can pick one from
// a config file or the environment (see LoadConfig).
package httprpc
