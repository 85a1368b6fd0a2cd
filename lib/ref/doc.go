// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref defines the validated reference types used to identify
// callers and services on a Holium node: PackageID (the tenant that
// owns a request) and Address (the node-scoped process a request is
// delivered to).
//
// Both types are immutable value types with unexported fields. They
// can only be constructed through validating constructors or parsers,
// so a reference that exists is a reference that is well-formed. Both
// implement encoding.TextMarshaler/TextUnmarshaler and travel as CBOR
// text strings on the wire.
package ref
