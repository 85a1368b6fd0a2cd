// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package proto

import (
	"errors"
	"fmt"
)

// Service tags which remote service raised an error.
type Service string

const (
	ServiceKv      Service = "kv"
	ServiceGraphDb Service = "graphdb"
	ServicePython  Service = "python"
)

// ErrorKind enumerates the remote failure modes a caller can branch
// on. The three services share this one enumeration — NoDb, NoCap,
// and IO recur across them — with the Service tag saying who raised
// it.
type ErrorKind string

const (
	// ErrNoDb: the target database does not exist.
	ErrNoDb ErrorKind = "no_db"

	// ErrDbExists: create ("new") of a database that already exists.
	ErrDbExists ErrorKind = "db_exists"

	// ErrKeyNotFound: kv get of an absent key.
	ErrKeyNotFound ErrorKind = "key_not_found"

	// ErrNoTx: a transaction id that is unknown, already committed,
	// or aborted.
	ErrNoTx ErrorKind = "no_tx"

	// ErrNoCap: the capability check rejected the caller for the
	// (package, target) scope. A permissions failure, delivered on
	// the normal response path — never a transport refusal.
	ErrNoCap ErrorKind = "no_cap"

	// ErrBackend: the service's storage or execution engine failed
	// internally. Detail carries the engine's text; Action names the
	// operation that was running.
	ErrBackend ErrorKind = "backend"

	// ErrInput: malformed request bytes, an undecodable payload, or
	// a signaled-but-missing blob. Also raised locally by the client
	// when a response payload fails to parse — a protocol mismatch
	// between client and service revisions.
	ErrInput ErrorKind = "input"

	// ErrIO: the service failed to reach a file or device it needed
	// (e.g. an unresolvable script path).
	ErrIO ErrorKind = "io"
)

// ErrorDetail is the typed error a failed service call resolves to.
// It is both the wire shape (inside an "err" response) and the error
// value façades return; callers extract it with errors.As and branch
// on Kind.
type ErrorDetail struct {
	// Service is the service that raised the error.
	Service Service `cbor:"service"`

	// Kind is the failure mode.
	Kind ErrorKind `cbor:"kind"`

	// Action names the operation that failed. Populated for backend
	// errors; best-effort elsewhere.
	Action string `cbor:"action,omitempty"`

	// Detail is free-text context: the rejected capability scope for
	// no_cap, the engine message for backend, the parse failure for
	// input.
	Detail string `cbor:"detail,omitempty"`
}

func (e *ErrorDetail) Error() string {
	switch {
	case e.Kind == ErrBackend && e.Action != "":
		return fmt.Sprintf("%s: backend error on %q: %s", e.Service, e.Action, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Service, e.Kind, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Service, e.Kind)
	}
}

// IsKind reports whether err is (or wraps) an ErrorDetail of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	var detail *ErrorDetail
	if errors.As(err, &detail) {
		return detail.Kind == kind
	}
	return false
}

// InputError constructs a locally-raised input-kind error. The client
// uses this for decode failures on its own side of the wire: a blob
// that was signaled but absent, or a payload that does not parse into
// the statically expected shape.
func InputError(service Service, action string, format string, args ...any) *ErrorDetail {
	return &ErrorDetail{
		Service: service,
		Kind:    ErrInput,
		Action:  action,
		Detail:  fmt.Sprintf(format, args...),
	}
}
