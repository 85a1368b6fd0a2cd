// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/transport"
)

// Config holds the parameters for creating a Node.
type Config struct {
	// DataDir holds kv backups and graphdb database files. Required;
	// must exist.
	DataDir string

	// ScriptsDir is where the python service resolves script paths.
	// Optional; when empty, every run_script fails with an io error,
	// which is exactly what an unconfigured runner should do.
	ScriptsDir string

	// Logger receives node operational messages. Nil means silent.
	Logger *slog.Logger
}

// Node is an in-process Holium dev node hosting the three system
// services. Every request is capability-checked against the grant
// table before any service logic runs. Node is safe for concurrent
// use.
type Node struct {
	logger *slog.Logger
	caps   *capabilityTable
	kv     *kvService
	graph  *graphService
	python *pythonService
}

// New creates a node. The caller owns it and must Close it to release
// the graphdb pools.
func New(cfg Config) (*Node, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("devnode: DataDir is required")
	}
	if info, err := os.Stat(cfg.DataDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("devnode: DataDir %q is not a directory", cfg.DataDir)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Node{
		logger: logger,
		caps:   newCapabilityTable(),
		kv:     newKvService(cfg.DataDir),
		graph:  newGraphService(cfg.DataDir, logger),
		python: newPythonService(cfg.ScriptsDir),
	}, nil
}

// Grant allows pkg to act on (service, target). Target GrantAll
// covers every resource of the service; the python service uses the
// empty target.
func (n *Node) Grant(pkg ref.PackageID, service proto.Service, target string) {
	n.caps.grant(pkg, service, target)
}

// Revoke removes a grant. Exact match only; revoking GrantAll does
// not touch narrower grants.
func (n *Node) Revoke(pkg ref.PackageID, service proto.Service, target string) {
	n.caps.revoke(pkg, service, target)
}

// RegisterScript installs a Go function as the handler for
// (script, function) on the python service. The script file must
// still exist under ScriptsDir for calls to reach it.
func (n *Node) RegisterScript(script, function string, fn ScriptFunc) {
	n.python.register(script, function, fn)
}

// Attach registers the node's three service addresses on an
// in-process substrate.
func (n *Node) Attach(substrate *transport.MemorySubstrate) {
	handler := func(ctx context.Context, msg transport.Message) transport.Message {
		return n.Handle(ctx, msg)
	}
	substrate.Register(ref.KvAddress(ref.LocalNode), handler)
	substrate.Register(ref.GraphDbAddress(ref.LocalNode), handler)
	substrate.Register(ref.PythonAddress(ref.LocalNode), handler)
}

// Close shuts the graphdb pools down. The node must not be used
// afterwards.
func (n *Node) Close() error {
	return n.graph.close()
}

// Handle processes one request message and returns the reply. The
// reply echoes the request's correlation id; its blob, when present,
// belongs to that call alone.
func (n *Node) Handle(ctx context.Context, msg transport.Message) transport.Message {
	service, ok := serviceFor(msg.To)
	if !ok {
		return n.reply(msg, proto.Response{}, nil, &proto.ErrorDetail{
			Kind:   proto.ErrInput,
			Detail: "no such service: " + msg.To.Process(),
		})
	}

	request, err := proto.DecodeRequest(msg.Body)
	if err != nil {
		return n.reply(msg, proto.Response{}, nil, &proto.ErrorDetail{
			Service: service,
			Kind:    proto.ErrInput,
			Detail:  err.Error(),
		})
	}

	var payload []byte
	if msg.Blob != nil {
		payload, err = msg.Blob.Bytes()
		if err != nil {
			return n.reply(msg, proto.Response{}, nil, &proto.ErrorDetail{
				Service: service,
				Kind:    proto.ErrInput,
				Action:  string(request.Action.Op),
				Detail:  "unreadable request payload: " + err.Error(),
			})
		}
	}

	if detail := n.caps.check(request.Package, service, request.Target); detail != nil {
		n.logger.Debug("capability rejected",
			"package", request.Package.String(),
			"service", string(service),
			"target", request.Target,
		)
		return n.reply(msg, proto.Response{}, nil, detail)
	}

	var (
		response proto.Response
		out      []byte
		detail   *proto.ErrorDetail
	)
	switch service {
	case proto.ServiceKv:
		response, out, detail = n.kv.handle(request.Target, request.Action, payload)
	case proto.ServiceGraphDb:
		response, out, detail = n.graph.handle(ctx, request.Target, request.Action, payload)
	case proto.ServicePython:
		response, out, detail = n.python.handle(request.Action)
	}
	return n.reply(msg, response, out, detail)
}

// reply assembles the response message for a request. A service error
// becomes an err-status response; a payload rides in the reply blob
// under the request's correlation id.
func (n *Node) reply(msg transport.Message, response proto.Response, payload []byte, detail *proto.ErrorDetail) transport.Message {
	if detail != nil {
		response = proto.Response{Status: proto.StatusErr, Error: detail}
		payload = nil
	}

	body, err := response.Encode()
	if err != nil {
		// Unreachable with well-formed responses; answer with a
		// minimal input error rather than dropping the call.
		n.logger.Error("response encoding failed", "error", err)
		fallback := proto.Response{Status: proto.StatusErr, Error: &proto.ErrorDetail{
			Kind: proto.ErrInput, Detail: "response encoding failed",
		}}
		body, _ = fallback.Encode()
		payload = nil
	}

	reply := transport.Message{
		CallID: msg.CallID,
		From:   msg.From,
		To:     msg.To,
		Body:   body,
	}
	if payload != nil {
		encoded, err := blob.Encode(payload)
		if err != nil {
			n.logger.Error("reply blob encoding failed", "error", err)
			return n.reply(msg, proto.Response{}, nil, &proto.ErrorDetail{
				Kind: proto.ErrInput, Detail: "reply payload encoding failed",
			})
		}
		reply.Blob = encoded
	}
	return reply
}

// serviceFor maps a destination process to the service it names.
func serviceFor(to ref.Address) (proto.Service, bool) {
	name, _, _ := strings.Cut(to.Process(), ":")
	switch name {
	case "kv":
		return proto.ServiceKv, true
	case "graphdb":
		return proto.ServiceGraphDb, true
	case "python":
		return proto.ServicePython, true
	default:
		return "", false
	}
}
