// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/holium/process-lib/lib/codec"
)

// dialTimeout covers only the connect phase to the router socket.
// Separate from the caller's await budget — a dial failure is a send
// failure, not a timeout.
const dialTimeout = 5 * time.Second

// replyReadTimeout bounds how long the reader goroutine holds a
// connection open for a reply. Longer than any call timeout so the
// caller's own timer always fires first.
const replyReadTimeout = 60 * time.Second

// maxReplySize caps a single reply envelope. Bulk data is size-bound
// by the service, and a runaway reply must not exhaust memory.
const maxReplySize = 64 * 1024 * 1024

// Compile-time interface check.
var _ Substrate = (*UnixSubstrate)(nil)

// UnixSubstrate routes calls through a node's local router socket.
// Each Send opens a fresh connection (one-request-per-connection),
// writes the CBOR message envelope, and reads the single CBOR reply
// on a background goroutine.
type UnixSubstrate struct {
	socketPath string
	logger     *slog.Logger
}

// NewUnixSubstrate creates a substrate that dials socketPath for
// every call. If logger is nil, a discard logger is used.
func NewUnixSubstrate(socketPath string, logger *slog.Logger) *UnixSubstrate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &UnixSubstrate{
		socketPath: socketPath,
		logger:     logger,
	}
}

// Send dials the router, writes the request envelope, and spawns a
// reader for the reply. Dial and write failures are send failures,
// surfaced synchronously without consuming the caller's await budget.
func (s *UnixSubstrate) Send(ctx context.Context, msg Message, replies chan<- Delivery) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", s.socketPath)
	if err != nil {
		return &Error{Kind: ErrSendFailed, Addr: msg.To, Err: err}
	}

	if err := codec.NewEncoder(conn).Encode(msg); err != nil {
		conn.Close()
		return &Error{Kind: ErrSendFailed, Addr: msg.To, Err: err}
	}

	// Half-close the write side so the router's read loop sees EOF.
	// CBOR is self-delimiting, but this keeps the framing unambiguous.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	go s.readReply(conn, msg, replies)
	return nil
}

// readReply reads the single correlated reply and delivers it. A
// reply that does not parse is delivered as a bad-reply transport
// error rather than silently dropped — the caller learns immediately
// instead of burning its full timeout.
func (s *UnixSubstrate) readReply(conn net.Conn, msg Message, replies chan<- Delivery) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(replyReadTimeout))

	var response Message
	err := codec.NewDecoder(io.LimitReader(conn, maxReplySize)).Decode(&response)

	var delivery Delivery
	if err != nil {
		delivery = Delivery{Err: &Error{Kind: ErrBadReply, Addr: msg.To, Err: err}}
	} else {
		delivery = Delivery{Message: response}
	}

	select {
	case replies <- delivery:
	default:
		s.logger.Debug("reply dropped, caller gone",
			"addr", msg.To.String(),
			"call_id", msg.CallID.String(),
		)
	}
}
