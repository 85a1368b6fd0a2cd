// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"fmt"

	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/transport"
)

// ProtocolError reports a reply whose status does not match any shape
// the originating call can produce. This is a client/service protocol
// violation, not a business error, and is never coerced into a
// default value.
type ProtocolError struct {
	Service  proto.Service
	Action   proto.Op
	Expected []proto.Status
	Got      proto.Status
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol violation on %q: unexpected response status %q (want %v)",
		e.Service, e.Action, e.Got, e.Expected)
}

// Result is a resolved reply: the decoded response plus the blob that
// rode in the same envelope. Shape accessors enforce the per-call
// status contract.
type Result struct {
	service  proto.Service
	action   proto.Op
	response proto.Response
	blob     blobSource
}

// blobSource is what Result reads an attached payload from.
type blobSource interface {
	Bytes() ([]byte, error)
}

// Resolve decodes a reply message for the call site identified by
// (service, action).
//
// A remote "err" status is mapped one-to-one onto its *ErrorDetail —
// no remote error is downgraded to a generic failure. A body that
// does not decode is a local input error: the reply came from
// something that does not speak this protocol revision.
func Resolve(msg *transport.Message, service proto.Service, action proto.Op) (*Result, error) {
	response, err := proto.DecodeResponse(msg.Body)
	if err != nil {
		return nil, proto.InputError(service, string(action), "undecodable response: %v", err)
	}

	if response.Status == proto.StatusErr {
		return nil, response.Error
	}

	result := &Result{
		service:  service,
		action:   action,
		response: response,
	}
	if msg.Blob != nil {
		result.blob = msg.Blob
	}
	return result, nil
}

// Status returns the decoded response status.
func (r *Result) Status() proto.Status { return r.response.Status }

// OK accepts only the "ok" status. Used by calls whose success
// carries no payload (set, delete, commit, backup, define, ...).
func (r *Result) OK() error {
	if r.response.Status != proto.StatusOk {
		return r.violation(proto.StatusOk)
	}
	return nil
}

// TxID accepts only the "begin_tx" status and returns the issued
// transaction id.
func (r *Result) TxID() (uint64, error) {
	if r.response.Status != proto.StatusBeginTx {
		return 0, r.violation(proto.StatusBeginTx)
	}
	return r.response.TxID, nil
}

// Data accepts only the "data" status and returns the blob payload.
// A signaled-but-absent blob, and a blob that fails verification, are
// input errors — never an empty result.
func (r *Result) Data() ([]byte, error) {
	if r.response.Status != proto.StatusData {
		return nil, r.violation(proto.StatusData)
	}
	return r.payload()
}

// GetBytes accepts only the "get" status and returns the blob
// payload (the stored value).
func (r *Result) GetBytes() ([]byte, error) {
	if r.response.Status != proto.StatusGet {
		return nil, r.violation(proto.StatusGet)
	}
	return r.payload()
}

// payload retrieves and verifies the attached blob. The response has
// already signaled that one is attached.
func (r *Result) payload() ([]byte, error) {
	if r.blob == nil {
		return nil, proto.InputError(r.service, string(r.action), "response signals a payload but no blob is attached")
	}
	data, err := r.blob.Bytes()
	if err != nil {
		return nil, proto.InputError(r.service, string(r.action), "unreadable payload: %v", err)
	}
	return data, nil
}

func (r *Result) violation(expected ...proto.Status) *ProtocolError {
	return &ProtocolError{
		Service:  r.service,
		Action:   r.action,
		Expected: expected,
		Got:      r.response.Status,
	}
}
