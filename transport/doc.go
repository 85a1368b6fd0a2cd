// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport defines the message-passing substrate boundary:
// the Message envelope, the Substrate send interface, and the typed
// transport errors that are never conflated with service-reported
// failures.
//
// The substrate is an external collaborator. process-lib ships two
// implementations: MemorySubstrate, an in-process handler registry
// for tests and embedded dev nodes, and UnixSubstrate, which routes
// each call over a node's local router socket. Routing, delivery, and
// capability verification beyond the send boundary are the
// substrate's business — a caller only ever names a service address.
//
// Every message carries a call id; a response echoes the id of its
// request, and the blob payload (when present) rides inside the same
// envelope. Correlation is therefore explicit and per-call: there is
// no shared payload channel that could attribute bytes to the wrong
// response.
package transport
