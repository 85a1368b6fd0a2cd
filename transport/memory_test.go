// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/lib/testutil"
)

func testMessage(t *testing.T, process string) Message {
	t.Helper()
	pkg, err := ref.NewPackageID("chess", "holium.os")
	if err != nil {
		t.Fatalf("NewPackageID: %v", err)
	}
	addr, err := ref.NewAddress(ref.LocalNode, process)
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}
	return Message{
		CallID: uuid.New(),
		From:   pkg,
		To:     addr,
		Body:   []byte{0xa0}, // empty CBOR map
	}
}

func TestMemorySubstrateDelivers(t *testing.T) {
	substrate := NewMemorySubstrate(nil)
	msg := testMessage(t, "kv:sys:holium")

	substrate.Register(msg.To, func(_ context.Context, request Message) Message {
		return Message{
			From: request.From,
			To:   request.To,
			Body: []byte{0xa0},
		}
	})

	replies := make(chan Delivery, 1)
	if err := substrate.Send(context.Background(), msg, replies); err != nil {
		t.Fatalf("Send: %v", err)
	}

	delivery := testutil.RequireReceive(t, replies, 5*time.Second, "waiting for reply")
	if delivery.Err != nil {
		t.Fatalf("delivery error: %v", delivery.Err)
	}
	if delivery.Message.CallID != msg.CallID {
		t.Errorf("reply call id %v does not echo request %v", delivery.Message.CallID, msg.CallID)
	}
}

func TestMemorySubstrateUnknownAddress(t *testing.T) {
	substrate := NewMemorySubstrate(nil)
	msg := testMessage(t, "nowhere:sys:holium")

	started := time.Now()
	err := substrate.Send(context.Background(), msg, make(chan Delivery, 1))
	if err == nil {
		t.Fatal("Send to unknown address succeeded")
	}

	// Send failure must be immediate, not a consumed timeout.
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Errorf("send failure took %v, want immediate", elapsed)
	}

	var transportErr *Error
	if !errors.As(err, &transportErr) {
		t.Fatalf("error is %T, want *transport.Error", err)
	}
	if transportErr.Kind != ErrSendFailed {
		t.Errorf("kind = %q, want %q", transportErr.Kind, ErrSendFailed)
	}
	if transportErr.Addr != msg.To {
		t.Errorf("error names %v, want %v", transportErr.Addr, msg.To)
	}
}

// A late reply to an abandoned call must land in that call's own
// (garbage) channel, never in a later call's.
func TestMemorySubstrateLateReplyIsIsolated(t *testing.T) {
	substrate := NewMemorySubstrate(nil)
	msg := testMessage(t, "slow:sys:holium")

	release := make(chan struct{})
	substrate.Register(msg.To, func(_ context.Context, request Message) Message {
		<-release
		return Message{Body: []byte{0xa0}}
	})

	abandonedReplies := make(chan Delivery, 1)
	if err := substrate.Send(context.Background(), msg, abandonedReplies); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// Caller gives up; fresh channel for the next call.
	secondMsg := testMessage(t, "slow:sys:holium")
	secondReplies := make(chan Delivery, 1)

	// Release the first handler, then issue the second call.
	close(release)
	delivery := testutil.RequireReceive(t, abandonedReplies, 5*time.Second, "late reply should land in abandoned channel")
	if delivery.Message.CallID != msg.CallID {
		t.Errorf("late reply carries call id %v, want %v", delivery.Message.CallID, msg.CallID)
	}

	substrate.Register(secondMsg.To, func(_ context.Context, request Message) Message {
		return Message{Body: []byte{0xa0}}
	})
	if err := substrate.Send(context.Background(), secondMsg, secondReplies); err != nil {
		t.Fatalf("Send: %v", err)
	}
	second := testutil.RequireReceive(t, secondReplies, 5*time.Second, "waiting for second reply")
	if second.Message.CallID != secondMsg.CallID {
		t.Errorf("second reply correlates to %v, want %v", second.Message.CallID, secondMsg.CallID)
	}
}

func TestTransportErrorKinds(t *testing.T) {
	addr, err := ref.ParseAddress("our@kv:sys:holium")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	timeout := &Error{Kind: ErrTimeout, Addr: addr}

	if !IsTimeout(timeout) {
		t.Error("IsTimeout missed a timeout error")
	}
	if IsKind(timeout, ErrSendFailed) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsTimeout(errors.New("plain")) {
		t.Error("IsTimeout matched a plain error")
	}
}
