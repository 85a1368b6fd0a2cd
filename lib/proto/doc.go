// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package proto defines the wire-level request and response shapes
// shared by the kv, graphdb, and python service façades, and the
// service-tagged error taxonomy their failures map onto.
//
// A request is a single CBOR map: the owning package, the optional
// service-scoped target (a database name), and exactly one action. A
// response is a single CBOR map tagged with a status; the "data" and
// "get" statuses signal that the bulk payload travels in the message's
// blob channel rather than the primary body.
//
// The three services share one error enumeration (ErrorKind) tagged
// with the service that raised it, instead of three overlapping
// per-service enumerations. Callers branch on Kind; Service and
// Action exist for diagnostics.
package proto
