// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package kv is the client façade for the node's transactional
// key-value service.
//
// A Store handle is bound to one named database. Mutations either
// auto-commit (nil transaction id) or join an open transaction begun
// with BeginTx; the transaction id is opaque, caller-held data that
// the service invalidates on Commit. The façade keeps no state
// between calls.
package kv
