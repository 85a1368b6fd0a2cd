// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package proto

import (
	"fmt"

	"github.com/holium/process-lib/lib/codec"
)

// Status tags a service response. Which statuses are acceptable
// depends on the originating call: a get accepts only "get" and
// "err"; a set accepts only "ok" and "err". Anything else is a
// protocol violation at the call site, never coerced to a default.
type Status string

const (
	// StatusOk is success with no payload.
	StatusOk Status = "ok"

	// StatusData is success with a payload in the blob channel.
	StatusData Status = "data"

	// StatusBeginTx is success carrying a freshly issued
	// transaction id.
	StatusBeginTx Status = "begin_tx"

	// StatusGet is success for a kv get: the response echoes the key
	// and the value travels in the blob channel.
	StatusGet Status = "get"

	// StatusErr is a service-reported failure carrying an
	// ErrorDetail.
	StatusErr Status = "err"
)

// Response is the primary message body of every service reply.
type Response struct {
	Status Status `cbor:"status"`

	// TxID is set when Status is "begin_tx".
	TxID uint64 `cbor:"tx_id,omitempty"`

	// Key is the echoed kv key when Status is "get".
	Key []byte `cbor:"key,omitempty"`

	// Error is set when Status is "err".
	Error *ErrorDetail `cbor:"error,omitempty"`
}

// Encode serializes the response deterministically.
func (r Response) Encode() ([]byte, error) {
	data, err := codec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("proto: encoding %q response: %w", r.Status, err)
	}
	return data, nil
}

// DecodeResponse parses a response body. Structural parse failure and
// a missing status tag are local decode errors: the response came
// from something that does not speak this protocol revision.
func DecodeResponse(data []byte) (Response, error) {
	var response Response
	if err := codec.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("proto: undecodable response body: %w", err)
	}
	if response.Status == "" {
		return Response{}, fmt.Errorf("proto: response has no status tag")
	}
	if response.Status == StatusErr && response.Error == nil {
		return Response{}, fmt.Errorf("proto: err response carries no error detail")
	}
	return response, nil
}
