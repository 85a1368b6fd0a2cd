// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package call implements the synchronous request/response protocol
// the three service façades are built on.
//
// Client is the call gateway: it encodes a request into a message
// envelope, stamps a fresh call id, dispatches it on the substrate,
// and blocks until the correlated reply arrives or the call timeout
// (5 seconds by default) elapses. Each call waits on its own reply
// channel, so a reply that arrives after its call was abandoned is
// unclaimable garbage — it can never be misattributed to a later
// call, and neither can its blob.
//
// Resolve is the response resolver: it decodes the reply body, maps a
// remote "err" status one-to-one onto *proto.ErrorDetail, and hands
// back a Result whose shape accessors (OK, TxID, Data, GetBytes)
// accept exactly the statuses valid for the originating call. Any
// other status — including a structurally valid but semantically
// wrong one — is a *ProtocolError, never a default value.
package call
