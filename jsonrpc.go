// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	rpc "github.com/gorilla/rpc/v2/json2"
	"github.com/rs/zerolog"
)

// JSONRPCTransport serves envelope calls from a JSON-RPC 2.0 endpoint.
// Every call becomes a POST to the endpoint with the procedure path as
// the method and the argument array as params; the JSON-RPC reply is turned
// back into an envelope.
type JSONRPCTransport struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewJSONRPCTransport creates a bridge to the JSON-RPC endpoint URL.
func NewJSONRPCTransport(endpoint string, cfg TransportConfig) *JSONRPCTransport {
	return &JSONRPCTransport{
		endpoint: endpoint,
		client:   newHTTPClient(cfg),
		log:      cfg.Logger,
	}
}

func jsonRPCFactory(cfg TransportConfig) (Transport, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httprpc: %s transport requires an endpoint", TransportJSONRPC)
	}
	return NewJSONRPCTransport(cfg.Endpoint, cfg), nil
}

type jsonRPCError struct {
	Message string        `json:"message"`
	Code    rpc.ErrorCode `json:"code"`
	Data    interface{}   `json:"data,omitempty"`
}

func (t *JSONRPCTransport) Fetch(ctx context.Context, req *Request) (*Response, error) {
	requestBodyBytes, err := rpc.EncodeClientRequest(req.Path, req.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode client params: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Header != nil {
		request.Header = req.Header.Clone()
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}
	defer CleanlyCloseBody(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	env, err := t.toEnvelope(raw)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("received status code: %d", resp.StatusCode)
		}
		return nil, err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	t.log.Debug().
		Str("method", req.Path).
		Str("endpoint", t.endpoint).
		Bool("ok", env.OK).
		Msg("jsonrpc response")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// toEnvelope maps a JSON-RPC 2.0 response onto the envelope protocol.
func (t *JSONRPCTransport) toEnvelope(raw []byte) (*Envelope, error) {
	var result json.RawMessage
	err := rpc.DecodeClientResponse(bytes.NewReader(raw), &result)

	var rpcErr *rpc.Error
	switch {
	case err == nil:
		return &Envelope{OK: true, Data: result}, nil
	case errors.Is(err, rpc.ErrNullResult):
		return &Envelope{OK: true, Data: jsonNull}, nil
	case errors.As(err, &rpcErr):
		code, _ := json.Marshal(rpcErr.Code)
		errRaw, mErr := json.Marshal(jsonRPCError{
			Message: rpcErr.Message,
			Code:    rpcErr.Code,
			Data:    rpcErr.Data,
		})
		if mErr != nil {
			return nil, fmt.Errorf("failed to encode error data: %w", mErr)
		}
		return &Envelope{
			OK: false,
			Error: &EnvelopeError{
				Message: rpcErr.Message,
				Code:    code,
				Raw:     errRaw,
			},
		}, nil
	default:
		return nil, fmt.Errorf("failed to decode client response: %w", err)
	}
}
