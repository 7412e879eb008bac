// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"errors"
	"fmt"
)

var (
	ErrMissingURL        = errors.New("httprpc: url is required")
	ErrMissingTransport  = errors.New("httprpc: transport is required")
	ErrEmptyPath         = errors.New("path must not be empty")
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	ErrUnknownTransport  = errors.New("httprpc: unknown transport")
)

// Kind classifies a ClientError by where the call failed.
type Kind uint8

const (
	// KindServer is an {"ok": false} envelope returned by the server.
	KindServer Kind = iota + 1
	// KindTransport means the transport failed and no response exists.
	KindTransport
	// KindProtocol means the response body was not valid JSON.
	KindProtocol
	// KindMalformed means the body was JSON but not a response envelope.
	KindMalformed
	// KindRequest means the request could not be built.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindMalformed:
		return "malformed"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// ClientError is the single error type returned by Query and Mutate.
// Which optional fields are set depends on Kind:
//
//	KindServer:    Envelope, Response
//	KindTransport: Err
//	KindProtocol:  Response, Err
//	KindMalformed: Response, Err
//	KindRequest:   Err
type ClientError struct {
	Kind    Kind
	Message string
	// Envelope is the decoded error envelope.
	Envelope *Envelope
	// Response is the raw transport response.
	Response *Response
	// Err is the lower-level failure, if any.
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("httprpc: %s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Code returns the raw "code" member of a server error envelope, or nil.
func (e *ClientError) Code() []byte {
	if e.Envelope == nil || e.Envelope.Error == nil {
		return nil
	}
	return e.Envelope.Error.Code
}

func newServerError(env *Envelope, res *Response) *ClientError {
	return &ClientError{
		Kind:     KindServer,
		Message:  env.Error.Message,
		Envelope: env,
		Response: res,
	}
}

// normalizeError turns any failure into a *ClientError. Errors that already
// are, or wrap, a *ClientError are returned as they are.
func normalizeError(kind Kind, err error, res *Response) *ClientError {
	if ce, ok := AsClientError(err); ok {
		return ce
	}
	return &ClientError{
		Kind:     kind,
		Message:  err.Error(),
		Response: res,
		Err:      err,
	}
}

// AsClientError reports whether err is or wraps a *ClientError.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsServer checks if err is an error envelope returned by the server.
func IsServer(err error) bool { return isKind(err, KindServer) }

// IsTransport checks if err is a transport failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsProtocol checks if err is an undecodable response body.
func IsProtocol(err error) bool { return isKind(err, KindProtocol) }

// IsMalformed checks if err is a response that is not an envelope.
func IsMalformed(err error) bool { return isKind(err, KindMalformed) }

func isKind(err error, k Kind) bool {
	ce, ok := AsClientError(err)
	return ok && ce.Kind == k
}
