// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package graphdb

import (
	"context"
	"fmt"

	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
)

// Row is one result record: column name to value, as decoded by the
// envelope codec.
type Row = map[string]any

// Param is one named statement parameter.
type Param struct {
	Name  string `cbor:"name"`
	Value any    `cbor:"value"`
}

// DB is a handle on one named graph database. It carries the caller's
// package identity for the service's capability check and is safe for
// concurrent use.
type DB struct {
	client *call.Client
	pkg    ref.PackageID
	db     string
	addr   ref.Address
}

// Open opens or creates the named database on the local node's
// graphdb service and returns the handle for it.
func Open(ctx context.Context, client *call.Client, pkg ref.PackageID, db string) (*DB, error) {
	handle := &DB{
		client: client,
		pkg:    pkg,
		db:     db,
		addr:   ref.GraphDbAddress(ref.LocalNode),
	}
	result, err := handle.call(ctx, proto.Action{Op: proto.OpOpen}, nil)
	if err != nil {
		return nil, fmt.Errorf("graphdb: open %q: %w", db, err)
	}
	if err := result.OK(); err != nil {
		return nil, fmt.Errorf("graphdb: open %q: %w", db, err)
	}
	return handle, nil
}

// RemoveDB removes and deletes the named database.
func RemoveDB(ctx context.Context, client *call.Client, pkg ref.PackageID, db string) error {
	handle := &DB{
		client: client,
		pkg:    pkg,
		db:     db,
		addr:   ref.GraphDbAddress(ref.LocalNode),
	}
	result, err := handle.call(ctx, proto.Action{Op: proto.OpRemoveDb}, nil)
	if err != nil {
		return fmt.Errorf("graphdb: remove %q: %w", db, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: remove %q: %w", db, err)
	}
	return nil
}

// Name returns the database name this handle is bound to.
func (d *DB) Name() string { return d.db }

// Define creates a namespace, database, or table.
func (d *DB) Define(ctx context.Context, resource proto.Resource) error {
	result, err := d.call(ctx, proto.Action{Op: proto.OpDefine, Resource: &resource}, nil)
	if err != nil {
		return fmt.Errorf("graphdb: define %s %q: %w", resource.Kind, resource.Name, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: define %s %q: %w", resource.Kind, resource.Name, err)
	}
	return nil
}

// Statement executes query text against the database. Params may be
// nil; when present they travel in the request blob as a CBOR-encoded
// parameter list.
func (d *DB) Statement(ctx context.Context, statement string, params []Param) error {
	action := proto.Action{Op: proto.OpStatement, Statement: statement}
	var payload []byte
	if params != nil {
		encoded, err := codec.Marshal(params)
		if err != nil {
			return fmt.Errorf("graphdb: statement %q: encoding params: %w", statement, err)
		}
		action.HasParams = true
		payload = encoded
	}
	result, err := d.call(ctx, action, payload)
	if err != nil {
		return fmt.Errorf("graphdb: statement %q: %w", statement, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: statement %q: %w", statement, err)
	}
	return nil
}

// Read executes read-only query text and returns the result rows.
// The service rejects mutating text with an input error. Rows arrive
// in the response blob.
func (d *DB) Read(ctx context.Context, statement string) ([]Row, error) {
	result, err := d.call(ctx, proto.Action{Op: proto.OpRead, Statement: statement}, nil)
	if err != nil {
		return nil, fmt.Errorf("graphdb: read %q: %w", statement, err)
	}
	data, err := result.Data()
	if err != nil {
		return nil, fmt.Errorf("graphdb: read %q: %w", statement, err)
	}
	var rows []Row
	if err := codec.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("graphdb: read %q: %w",
			statement, proto.InputError(proto.ServiceGraphDb, string(proto.OpRead), "unparsable row set: %v", err))
	}
	return rows, nil
}

// Create inserts records into a table. The records travel in the
// request blob.
func (d *DB) Create(ctx context.Context, table string, records []Row) error {
	return d.recordOp(ctx, proto.OpCreate, table, records)
}

// Update rewrites records in a table. The records travel in the
// request blob.
func (d *DB) Update(ctx context.Context, table string, records []Row) error {
	return d.recordOp(ctx, proto.OpUpdate, table, records)
}

// DeleteRecords deletes the records with the given ids from a table.
func (d *DB) DeleteRecords(ctx context.Context, table string, ids []string) error {
	payload, err := codec.Marshal(ids)
	if err != nil {
		return fmt.Errorf("graphdb: delete records in %q: encoding ids: %w", table, err)
	}
	result, err := d.call(ctx, proto.Action{Op: proto.OpDeleteRecords, Table: table}, payload)
	if err != nil {
		return fmt.Errorf("graphdb: delete records in %q: %w", table, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: delete records in %q: %w", table, err)
	}
	return nil
}

// Backup asks the service to snapshot the database.
func (d *DB) Backup(ctx context.Context) error {
	result, err := d.call(ctx, proto.Action{Op: proto.OpBackup}, nil)
	if err != nil {
		return fmt.Errorf("graphdb: backup %q: %w", d.db, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: backup %q: %w", d.db, err)
	}
	return nil
}

func (d *DB) recordOp(ctx context.Context, op proto.Op, table string, records []Row) error {
	payload, err := codec.Marshal(records)
	if err != nil {
		return fmt.Errorf("graphdb: %s in %q: encoding records: %w", op, table, err)
	}
	result, err := d.call(ctx, proto.Action{Op: op, Table: table}, payload)
	if err != nil {
		return fmt.Errorf("graphdb: %s in %q: %w", op, table, err)
	}
	if err := result.OK(); err != nil {
		return fmt.Errorf("graphdb: %s in %q: %w", op, table, err)
	}
	return nil
}

func (d *DB) call(ctx context.Context, action proto.Action, payload []byte) (*call.Result, error) {
	request := proto.Request{Package: d.pkg, Target: d.db, Action: action}
	msg, err := d.client.Call(ctx, d.addr, request, payload)
	if err != nil {
		return nil, err
	}
	return call.Resolve(msg, proto.ServiceGraphDb, action.Op)
}
