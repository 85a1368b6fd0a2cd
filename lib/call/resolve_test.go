// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/transport"
)

func encodeReply(t *testing.T, response proto.Response, payload []byte) *transport.Message {
	t.Helper()
	body, err := response.Encode()
	if err != nil {
		t.Fatalf("encoding response: %v", err)
	}
	msg := &transport.Message{Body: body}
	if payload != nil {
		msg.Blob, err = blob.Encode(payload)
		if err != nil {
			t.Fatalf("encoding blob: %v", err)
		}
	}
	return msg
}

func TestResolveRemoteError(t *testing.T) {
	detail := &proto.ErrorDetail{
		Service: proto.ServiceKv,
		Kind:    proto.ErrKeyNotFound,
	}
	msg := encodeReply(t, proto.Response{Status: proto.StatusErr, Error: detail}, nil)

	_, err := Resolve(msg, proto.ServiceKv, proto.OpGet)
	if err == nil {
		t.Fatal("expected remote error")
	}
	if !proto.IsKind(err, proto.ErrKeyNotFound) {
		t.Errorf("error is %v, want key_not_found", err)
	}
}

func TestResolveShapeMismatch(t *testing.T) {
	// A begin_tx acknowledgement where a plain ok was expected must
	// surface as a protocol violation, never as success.
	msg := encodeReply(t, proto.Response{Status: proto.StatusBeginTx, TxID: 7}, nil)

	result, err := Resolve(msg, proto.ServiceKv, proto.OpSet)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	err = result.OK()
	if err == nil {
		t.Fatal("expected protocol violation")
	}
	var violation *ProtocolError
	if !errors.As(err, &violation) {
		t.Fatalf("error is %T, want *ProtocolError", err)
	}
	if violation.Got != proto.StatusBeginTx {
		t.Errorf("violation.Got = %q, want %q", violation.Got, proto.StatusBeginTx)
	}
}

func TestResolveTxID(t *testing.T) {
	msg := encodeReply(t, proto.Response{Status: proto.StatusBeginTx, TxID: 42}, nil)

	result, err := Resolve(msg, proto.ServiceKv, proto.OpBeginTx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	txID, err := result.TxID()
	if err != nil {
		t.Fatalf("TxID: %v", err)
	}
	if txID != 42 {
		t.Errorf("txID = %d, want 42", txID)
	}
}

func TestResolveMissingBlobIsInputError(t *testing.T) {
	// Status says a payload follows, but none is attached.
	msg := encodeReply(t, proto.Response{Status: proto.StatusGet, Key: []byte("k")}, nil)

	result, err := Resolve(msg, proto.ServiceKv, proto.OpGet)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, err = result.GetBytes()
	if err == nil {
		t.Fatal("expected error for missing payload")
	}
	if !proto.IsKind(err, proto.ErrInput) {
		t.Errorf("error is %v, want input error", err)
	}
}

func TestResolvePayload(t *testing.T) {
	payload := []byte("row bytes")
	msg := encodeReply(t, proto.Response{Status: proto.StatusData}, payload)

	result, err := Resolve(msg, proto.ServiceGraphDb, proto.OpRead)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := result.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("data = %q, want %q", data, payload)
	}
}

func TestResolveGarbageBody(t *testing.T) {
	msg := &transport.Message{Body: []byte("not cbor at all")}

	_, err := Resolve(msg, proto.ServicePython, proto.OpRunScript)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	if !proto.IsKind(err, proto.ErrInput) {
		t.Errorf("error is %v, want input error", err)
	}
}
