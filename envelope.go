// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var jsonNull = json.RawMessage("null")

// Envelope is the response wrapper every call decodes. OK is the only
// discriminator: Data is meaningful when OK is true, Error when it is false.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the "error" member of a failed envelope. Members other
// than message and code are kept in Raw untouched.
type EnvelopeError struct {
	Message string
	Code    json.RawMessage
	Raw     json.RawMessage
}

func (e EnvelopeError) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code,omitempty"`
	}{e.Message, e.Code})
}

func (e *EnvelopeError) UnmarshalJSON(data []byte) error {
	var wire struct {
		Message *string         `json:"message"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Message == nil {
		return fmt.Errorf("%w: error.message is missing", ErrMalformedEnvelope)
	}
	e.Message = *wire.Message
	e.Code = wire.Code
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// decodeEnvelope parses a response body. A body that is not JSON yields
// KindProtocol; JSON that is not an envelope yields KindMalformed.
func decodeEnvelope(body []byte) (*Envelope, Kind, error) {
	if !json.Valid(body) {
		return nil, KindProtocol, json.Unmarshal(body, new(any))
	}

	var wire struct {
		OK    *bool           `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, KindMalformed, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	switch {
	case wire.OK == nil:
		return nil, KindMalformed, fmt.Errorf("%w: ok is missing", ErrMalformedEnvelope)
	case *wire.OK:
		data := wire.Data
		if len(data) == 0 {
			data = jsonNull
		}
		return &Envelope{OK: true, Data: data}, 0, nil
	}

	if len(wire.Error) == 0 || string(wire.Error) == "null" {
		return nil, KindMalformed, fmt.Errorf("%w: error is missing", ErrMalformedEnvelope)
	}
	envErr := new(EnvelopeError)
	if err := json.Unmarshal(wire.Error, envErr); err != nil {
		if !errors.Is(err, ErrMalformedEnvelope) {
			err = fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		return nil, KindMalformed, err
	}
	return &Envelope{OK: false, Error: envErr}, 0, nil
}
