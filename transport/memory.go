// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/holium/process-lib/lib/ref"
)

// Compile-time interface check.
var _ Substrate = (*MemorySubstrate)(nil)

// Handler processes one request message and returns the response
// message. The substrate stamps the response with the request's
// CallID, so handlers do not need to copy it.
type Handler func(ctx context.Context, msg Message) Message

// MemorySubstrate is an in-process Substrate: services register a
// Handler per address, and Send dispatches to it on a fresh
// goroutine. This is the substrate used by tests and by an embedded
// dev node — no sockets, no serialization boundary crossing beyond
// the message envelope itself.
type MemorySubstrate struct {
	mu       sync.Mutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewMemorySubstrate creates an empty in-process substrate. If logger
// is nil, a discard logger is used.
func NewMemorySubstrate(logger *slog.Logger) *MemorySubstrate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MemorySubstrate{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register installs the handler for a service address, replacing any
// previous registration.
func (s *MemorySubstrate) Register(addr ref.Address, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[addr.String()] = handler
}

// Send looks up the destination handler and runs it asynchronously.
// An unregistered address is a send failure, surfaced immediately.
func (s *MemorySubstrate) Send(ctx context.Context, msg Message, replies chan<- Delivery) error {
	s.mu.Lock()
	handler, exists := s.handlers[msg.To.String()]
	s.mu.Unlock()

	if !exists {
		return &Error{
			Kind: ErrSendFailed,
			Addr: msg.To,
			Err:  fmt.Errorf("no service registered at address"),
		}
	}

	go func() {
		response := handler(ctx, msg)
		response.CallID = msg.CallID

		// The reply channel holds one Delivery. If the caller has
		// already abandoned the call (timeout), the buffered send
		// still succeeds and the stale Delivery is garbage with the
		// channel — it can never be claimed by a later call, which
		// always waits on a fresh channel.
		select {
		case replies <- Delivery{Message: response}:
		default:
			s.logger.Debug("reply dropped, caller gone",
				"addr", msg.To.String(),
				"call_id", msg.CallID.String(),
			)
		}
	}()

	return nil
}
