// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/ref"
)

// Message is the unit of delivery on the substrate. Requests and
// responses share the shape; a response echoes the CallID of the
// request it answers.
type Message struct {
	// CallID correlates a response (and its blob) with exactly one
	// in-flight call.
	CallID uuid.UUID `cbor:"call_id"`

	// From is the package the sender acts on behalf of.
	From ref.PackageID `cbor:"from"`

	// To is the destination process.
	To ref.Address `cbor:"to"`

	// Body is the CBOR-encoded primary payload: a proto.Request on
	// the way out, a proto.Response on the way back.
	Body codec.RawMessage `cbor:"body"`

	// Blob is the optional bulk payload for this message.
	Blob *blob.Blob `cbor:"blob,omitempty"`
}

// Delivery is what arrives on a reply channel: a response message, or
// a terminal transport failure for that call (e.g. the substrate read
// an unparsable reply envelope).
type Delivery struct {
	Message Message
	Err     error
}

// Substrate is the asynchronous message-passing boundary.
//
// Send dispatches one request message. It returns immediately: a
// non-nil error means the message never left the local node (unknown
// destination, dial failure) and consumes none of the caller's await
// budget. The correlated response is delivered later as a single
// Delivery on replies. Implementations must never deliver more than
// one Delivery per Send, and must not block forever if the receiver
// has abandoned the channel — reply channels are buffered for exactly
// one Delivery.
type Substrate interface {
	Send(ctx context.Context, msg Message, replies chan<- Delivery) error
}
