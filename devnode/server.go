// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/transport"
)

// readTimeout is how long a connection may take to deliver its
// request. A well-behaved client writes immediately after dialing.
const readTimeout = 30 * time.Second

// writeTimeout bounds the reply write.
const writeTimeout = 10 * time.Second

// maxRequestSize caps one request envelope, blob included.
const maxRequestSize = 64 * 1024 * 1024

// Server exposes a Node on a unix socket, speaking the same message
// envelope the in-process substrate carries. Each connection is one
// request-response cycle: the client writes a CBOR message, the
// server answers with one, and the connection closes.
type Server struct {
	socketPath string
	node       *Node
	logger     *slog.Logger

	// active tracks in-flight connections so Serve can drain them on
	// shutdown.
	active sync.WaitGroup
}

// NewServer creates a server for node on socketPath. If logger is
// nil, a discard logger is used.
func NewServer(socketPath string, node *Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		socketPath: socketPath,
		node:       node,
		logger:     logger,
	}
}

// Serve listens on the unix socket and dispatches requests to the
// node until ctx is cancelled, then drains active connections. Any
// stale socket file at the path is removed first; the socket file is
// removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("devnode listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// handleConnection runs one request-response cycle.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// One CBOR value is one request. CBOR is self-delimiting, so no
	// framing beyond the connection itself is needed; the limit stops
	// a runaway client from exhausting memory.
	var msg transport.Message
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&msg); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.logger.Debug("unreadable request", "error", err)
		return
	}

	reply := s.node.Handle(ctx, msg)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Debug("reply write failed",
			"call_id", msg.CallID.String(),
			"error", err,
		)
	}
}
