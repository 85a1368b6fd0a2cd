// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR serialization used for every message
// envelope, request body, and typed blob payload in process-lib.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// logical request always produces identical bytes, so services can
// reject malformed input structurally instead of crashing on it, and
// envelope round-trips are byte-stable. Decoding accepts standard CBOR
// and ignores unknown fields for forward compatibility between client
// and service versions.
//
// All other packages import this one instead of fxamacker/cbor
// directly, so the encoder configuration lives in exactly one place.
package codec
