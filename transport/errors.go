// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"

	"github.com/holium/process-lib/lib/ref"
)

// ErrorKind classifies a transport failure. Transport failures are a
// different species from service-reported errors: the call never
// completed, and nothing can be inferred about the state of the
// remote service. The client never retries them automatically.
type ErrorKind string

const (
	// ErrSendFailed: the request never left the node — no service at
	// the address, or the router socket could not be reached.
	ErrSendFailed ErrorKind = "send_failed"

	// ErrTimeout: no correlated response arrived within the call
	// timeout. Not a statement about the request's fate; a caller
	// must not read a timeout as "key not found" or any other
	// business outcome.
	ErrTimeout ErrorKind = "timeout"

	// ErrBadReply: the substrate received bytes for this call that
	// do not parse as a message envelope.
	ErrBadReply ErrorKind = "bad_reply"
)

// Error is the typed transport failure. Extract with errors.As to
// branch on Kind.
type Error struct {
	Kind ErrorKind
	Addr ref.Address
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s calling %s: %v", e.Kind, e.Addr, e.Err)
	}
	return fmt.Sprintf("transport: %s calling %s", e.Kind, e.Addr)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a transport Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Kind == kind
	}
	return false
}

// IsTimeout reports whether err is a call timeout.
func IsTimeout(err error) bool { return IsKind(err, ErrTimeout) }
