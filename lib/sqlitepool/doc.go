// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool is a SQLite connection pool with the pragmas the
// dev node's graph database backend needs.
//
// It wraps zombiezen.com/go/sqlite with WAL journaling, NORMAL
// synchronous, a busy timeout for write contention, and foreign keys
// on (the graph service expresses record links relationally). Callers
// [Pool.Take] a connection, work, and [Pool.Put] it back; connections
// are not safe for concurrent use, the pool is.
//
// The package is deliberately thin. Services write SQL and use
// sqlitex.Execute directly; there is no query builder and no attempt
// to hide SQLite's connection model. [Pool.Backup] snapshots the live
// database with VACUUM INTO.
package sqlitepool
