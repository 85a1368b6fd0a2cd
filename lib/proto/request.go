// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package proto

import (
	"fmt"

	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/ref"
)

// Op names a service operation. The op tag is what a service switches
// on; the remaining Action fields are populated per-op and omitted
// from the wire otherwise.
type Op string

// Key-value store operations.
const (
	OpNew     Op = "new"
	OpSet     Op = "set"
	OpDelete  Op = "delete"
	OpGet     Op = "get"
	OpBeginTx Op = "begin_tx"
	OpCommit  Op = "commit"
)

// Graph database operations.
const (
	OpOpen          Op = "open"
	OpRemoveDb      Op = "remove_db"
	OpDefine        Op = "define"
	OpStatement     Op = "statement"
	OpRead          Op = "read"
	OpCreate        Op = "create"
	OpUpdate        Op = "update"
	OpDeleteRecords Op = "delete_records"
)

// OpBackup asks the service to snapshot the target database. Shared
// by the kv and graphdb services.
const OpBackup Op = "backup"

// OpRunScript runs a function from a script in the package's scripts
// directory. Python service only.
const OpRunScript Op = "run_script"

// ResourceKind selects what a graphdb "define" creates.
type ResourceKind string

const (
	ResourceNamespace ResourceKind = "namespace"
	ResourceDatabase  ResourceKind = "database"
	ResourceTable     ResourceKind = "table"
)

// Resource is the target of a graphdb "define" action.
type Resource struct {
	Kind ResourceKind `cbor:"kind"`
	Name string       `cbor:"name"`
}

// Action is the tagged operation payload of a Request. Exactly one op
// per request; which fields are meaningful depends on Op. Values whose
// natural size is unbounded (a stored value, statement parameters,
// record sets) never appear here — they travel in the blob channel,
// and the action only carries the flag that says so.
type Action struct {
	Op Op `cbor:"op"`

	// Key is the kv key for set/delete/get.
	Key []byte `cbor:"key,omitempty"`

	// TxID scopes set/delete/commit to an open transaction. Nil on
	// set/delete means auto-commit. The id is opaque, caller-held
	// state; the client tracks nothing.
	TxID *uint64 `cbor:"tx_id,omitempty"`

	// Resource is the target of a define action.
	Resource *Resource `cbor:"resource,omitempty"`

	// Statement is the query text for statement/read.
	Statement string `cbor:"statement,omitempty"`

	// HasParams marks a statement whose bound parameters travel in
	// the request blob (a CBOR-encoded []Param).
	HasParams bool `cbor:"has_params,omitempty"`

	// Table is the record table for create/update/delete_records.
	// The records themselves travel in the request blob.
	Table string `cbor:"table,omitempty"`

	// Script and Func select the script file (relative to the
	// package's scripts directory) and the function to call, for
	// run_script.
	Script string `cbor:"script,omitempty"`
	Func   string `cbor:"func,omitempty"`

	// Args are the string arguments passed to Func.
	Args []string `cbor:"args,omitempty"`
}

// Request is the primary message body for every service call. It is
// immutable once sent.
type Request struct {
	// Package is the tenant the capability check is evaluated
	// against.
	Package ref.PackageID `cbor:"package"`

	// Target is the service-scoped resource name: a database name
	// for kv and graphdb, empty for the python runner.
	Target string `cbor:"target,omitempty"`

	// Action is the single operation this request performs.
	Action Action `cbor:"action"`
}

// Encode serializes the request deterministically.
func (r Request) Encode() ([]byte, error) {
	data, err := codec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("proto: encoding %q request: %w", r.Action.Op, err)
	}
	return data, nil
}

// DecodeRequest parses a request body. A body that does not parse, or
// that carries no op tag, is malformed input — services answer it
// with an input error rather than crashing.
func DecodeRequest(data []byte) (Request, error) {
	var request Request
	if err := codec.Unmarshal(data, &request); err != nil {
		return Request{}, fmt.Errorf("proto: undecodable request body: %w", err)
	}
	if request.Action.Op == "" {
		return Request{}, fmt.Errorf("proto: request has no op tag")
	}
	return request, nil
}
