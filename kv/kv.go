// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package kv

import (
	"context"
	"fmt"

	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
)

// Store is a handle on one named key-value database. It carries the
// caller's package identity for the service's capability check and is
// safe for concurrent use.
type Store struct {
	client *call.Client
	pkg    ref.PackageID
	db     string
	addr   ref.Address
}

// New creates the named database on the local node's kv service, or
// fails with a db_exists error if it already exists. The returned
// Store is the handle for all further operations.
func New(ctx context.Context, client *call.Client, pkg ref.PackageID, db string) (*Store, error) {
	store := &Store{
		client: client,
		pkg:    pkg,
		db:     db,
		addr:   ref.KvAddress(ref.LocalNode),
	}
	result, err := store.call(ctx, proto.Action{Op: proto.OpNew}, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: new %q: %w", db, err)
	}
	if err := result.OK(); err != nil {
		return nil, fmt.Errorf("kv: new %q: %w", db, err)
	}
	return store, nil
}

// Open returns a handle on an existing database without touching the
// service. The first operation through the handle surfaces no_db if
// the database does not exist.
func Open(client *call.Client, pkg ref.PackageID, db string) *Store {
	return &Store{
		client: client,
		pkg:    pkg,
		db:     db,
		addr:   ref.KvAddress(ref.LocalNode),
	}
}

// DB returns the database name this handle is bound to.
func (s *Store) DB() string { return s.db }

// Get reads the value stored under key. A missing key is a
// key_not_found error, never an empty value.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	result, err := s.call(ctx, proto.Action{Op: proto.OpGet, Key: key}, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: get %q: %w", key, err)
	}
	value, err := result.GetBytes()
	if err != nil {
		return nil, fmt.Errorf("kv: get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. The value travels in the blob channel.
// A nil txID applies the write immediately; a non-nil txID stages it
// in that open transaction until Commit.
func (s *Store) Set(ctx context.Context, key, value []byte, txID *uint64) error {
	result, err := s.call(ctx, proto.Action{Op: proto.OpSet, Key: key, TxID: txID}, value)
	if err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Transaction scoping follows the same rule as
// Set.
func (s *Store) Delete(ctx context.Context, key []byte, txID *uint64) error {
	result, err := s.call(ctx, proto.Action{Op: proto.OpDelete, Key: key, TxID: txID}, nil)
	if err != nil {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	return nil
}

// BeginTx opens a transaction and returns its id. The id is the only
// cross-call state in the protocol, and the caller holds it.
func (s *Store) BeginTx(ctx context.Context) (uint64, error) {
	result, err := s.call(ctx, proto.Action{Op: proto.OpBeginTx}, nil)
	if err != nil {
		return 0, fmt.Errorf("kv: begin tx: %w", err)
	}
	txID, err := result.TxID()
	if err != nil {
		return 0, fmt.Errorf("kv: begin tx: %w", err)
	}
	return txID, nil
}

// Commit applies the writes staged under txID and invalidates it.
// Reusing the id afterwards fails with no_tx.
func (s *Store) Commit(ctx context.Context, txID uint64) error {
	result, err := s.call(ctx, proto.Action{Op: proto.OpCommit, TxID: &txID}, nil)
	if err != nil {
		return fmt.Errorf("kv: commit tx %d: %w", txID, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("kv: commit tx %d: %w", txID, err)
	}
	return nil
}

// Backup asks the service to snapshot the database.
func (s *Store) Backup(ctx context.Context) error {
	result, err := s.call(ctx, proto.Action{Op: proto.OpBackup}, nil)
	if err != nil {
		return fmt.Errorf("kv: backup %q: %w", s.db, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("kv: backup %q: %w", s.db, err)
	}
	return nil
}

func (s *Store) call(ctx context.Context, action proto.Action, payload []byte) (*call.Result, error) {
	request := proto.Request{Package: s.pkg, Target: s.db, Action: action}
	msg, err := s.client.Call(ctx, s.addr, request, payload)
	if err != nil {
		return nil, err
	}
	return call.Resolve(msg, proto.ServiceKv, action.Op)
}
