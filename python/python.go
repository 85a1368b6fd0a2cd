// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// Package python is the client façade for the node's sandboxed script
// runner service.
package python

import (
	"context"
	"fmt"

	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
)

// Runner invokes scripts from the package's scripts directory. It
// carries the caller's package identity for the service's capability
// check and is safe for concurrent use.
type Runner struct {
	client *call.Client
	pkg    ref.PackageID
	addr   ref.Address
}

// NewRunner creates a runner bound to the local node's python
// service.
func NewRunner(client *call.Client, pkg ref.PackageID) *Runner {
	return &Runner{
		client: client,
		pkg:    pkg,
		addr:   ref.PythonAddress(ref.LocalNode),
	}
}

// RunScript calls the named function in a script under the package's
// scripts directory and returns its output bytes. An unresolvable
// script path is an io error; the output travels in the response
// blob.
func (r *Runner) RunScript(ctx context.Context, script, function string, args []string) ([]byte, error) {
	action := proto.Action{
		Op:     proto.OpRunScript,
		Script: script,
		Func:   function,
		Args:   args,
	}
	request := proto.Request{Package: r.pkg, Action: action}
	msg, err := r.client.Call(ctx, r.addr, request, nil)
	if err != nil {
		return nil, fmt.Errorf("python: run %s.%s: %w", script, function, err)
	}
	result, err := call.Resolve(msg, proto.ServicePython, proto.OpRunScript)
	if err != nil {
		return nil, fmt.Errorf("python: run %s.%s: %w", script, function, err)
	}
	output, err := result.Data()
	if err != nil {
		return nil, fmt.Errorf("python: run %s.%s: %w", script, function, err)
	}
	return output, nil
}
