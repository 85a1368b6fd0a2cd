// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func openTestPool(t *testing.T, schema string) *Pool {
	t.Helper()
	pool, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		PoolSize: 2,
		OnConnect: func(conn *sqlite.Conn) error {
			if schema == "" {
				return nil
			}
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("Open without a path should fail")
	}
}

func TestTakePutRoundTrip(t *testing.T) {
	pool := openTestPool(t, "CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT);")
	ctx := context.Background()

	conn, err := pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	err = sqlitex.Execute(conn, "INSERT INTO kv (k, v) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{"name", "ada"},
	})
	pool.Put(conn)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	conn, err = pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	var got string
	err = sqlitex.Execute(conn, "SELECT v FROM kv WHERE k = ?", &sqlitex.ExecOptions{
		Args: []any{"name"},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			got = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != "ada" {
		t.Errorf("got %q, want ada", got)
	}
}

func TestBackupWritesSnapshot(t *testing.T) {
	pool := openTestPool(t, "CREATE TABLE IF NOT EXISTS t (n INTEGER);")
	ctx := context.Background()

	conn, err := pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	err = sqlitex.Execute(conn, "INSERT INTO t (n) VALUES (7)", nil)
	pool.Put(conn)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := pool.Backup(ctx, dest); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("snapshot is empty")
	}

	// A second backup to the same path must fail, not overwrite.
	if err := pool.Backup(ctx, dest); err == nil {
		t.Error("backup over an existing snapshot should fail")
	}
}
