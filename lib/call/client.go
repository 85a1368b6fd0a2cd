// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/transport"
)

// DefaultTimeout is the per-call await budget when Config.Timeout is
// zero. Matches the protocol's documented five-second contract.
const DefaultTimeout = 5 * time.Second

// Config holds the parameters for creating a Client.
type Config struct {
	// Substrate delivers messages. Required.
	Substrate transport.Substrate

	// Timeout is the per-call await budget. If zero, DefaultTimeout
	// is used. There is no per-call override: a façade call either
	// completes within the client's budget or fails with a timeout.
	Timeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is the call gateway shared by all service façades. It holds
// no per-call state between calls: correlation lives entirely in the
// per-call reply channel, and transaction ids are caller-held data.
// Client is safe for concurrent use.
type Client struct {
	substrate transport.Substrate
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a call gateway over the given substrate.
func New(config Config) (*Client, error) {
	if config.Substrate == nil {
		return nil, fmt.Errorf("call: Substrate is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		substrate: config.Substrate,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Call sends one request to a service address and blocks until the
// correlated reply arrives, the timeout elapses, or ctx is cancelled.
// The optional payload travels in the message's blob channel.
//
// Failures are typed: a *transport.Error for send failure, timeout,
// or an unparsable reply envelope; ctx.Err() for caller cancellation.
// Interpreting the returned message is the resolver's job — Call
// itself never looks inside the reply body.
func (c *Client) Call(ctx context.Context, to ref.Address, request proto.Request, payload []byte) (*transport.Message, error) {
	body, err := request.Encode()
	if err != nil {
		return nil, err
	}

	msg := transport.Message{
		CallID: uuid.New(),
		From:   request.Package,
		To:     to,
		Body:   body,
	}
	if payload != nil {
		encoded, err := blob.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("call: encoding payload for %q: %w", request.Action.Op, err)
		}
		msg.Blob = encoded
	}

	// One buffered slot: the substrate can always deliver without
	// blocking, and an abandoned call's late reply dies with this
	// channel instead of leaking into a later call.
	replies := make(chan transport.Delivery, 1)

	started := time.Now()
	if err := c.substrate.Send(ctx, msg, replies); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case delivery := <-replies:
		if delivery.Err != nil {
			return nil, delivery.Err
		}
		if delivery.Message.CallID != msg.CallID {
			return nil, &transport.Error{
				Kind: transport.ErrBadReply,
				Addr: to,
				Err:  fmt.Errorf("reply correlates to call %s, want %s", delivery.Message.CallID, msg.CallID),
			}
		}
		c.logger.Debug("call completed",
			"addr", to.String(),
			"op", string(request.Action.Op),
			"duration", time.Since(started),
		)
		return &delivery.Message, nil

	case <-timer.C:
		c.logger.Debug("call timed out",
			"addr", to.String(),
			"op", string(request.Action.Op),
			"timeout", c.timeout,
		)
		return nil, &transport.Error{Kind: transport.ErrTimeout, Addr: to}

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
