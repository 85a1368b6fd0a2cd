// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package devnode is an in-process Holium node for development and
// tests: working implementations of the kv, graphdb, and python
// services behind the same wire protocol a production node speaks.
//
// A Node checks every request against its capability table, then
// dispatches to the addressed service. It attaches directly to a
// transport.MemorySubstrate for in-process use, or serves the
// protocol on a unix socket via Server for out-of-process clients.
//
// The service backends are deliberately simple: kv holds databases in
// memory with staged transactions, graphdb keeps one SQLite file per
// database, and python dispatches to registered Go functions instead
// of a real interpreter sandbox. The protocol surface — statuses,
// error kinds, blob usage — matches the real services exactly; the
// engines behind it do not try to.
package devnode
