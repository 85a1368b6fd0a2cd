// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// LocalNode is the node name that the substrate resolves to the node
// the caller is running on. System services are addressed on the
// local node.
const LocalNode = "our"

// Address identifies a process on a node. The process segment has the
// form "name:package:publisher" (e.g. "kv:sys:holium"); routing below
// that — which replica, which shard, which transaction — is entirely
// the substrate's and the service's concern, never the caller's.
//
// The canonical text form is "node@name:package:publisher".
type Address struct {
	node    string
	process string
}

// NewAddress creates a validated Address. The process string must be
// three ':'-separated segments.
func NewAddress(node, process string) (Address, error) {
	if err := validateSegment(node, "node"); err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	segments := strings.Split(process, ":")
	if len(segments) != 3 {
		return Address{}, fmt.Errorf("invalid address: process %q: want \"name:package:publisher\"", process)
	}
	for _, segment := range segments {
		if err := validateSegment(segment, "process segment"); err != nil {
			return Address{}, fmt.Errorf("invalid address: %w", err)
		}
	}
	return Address{node: node, process: process}, nil
}

// Well-known system service process names.
const (
	kvProcess      = "kv:sys:holium"
	graphDbProcess = "graphdb:sys:holium"
	pythonProcess  = "python:sys:holium"
)

// KvAddress returns the key-value service address on the given node.
func KvAddress(node string) Address { return Address{node: node, process: kvProcess} }

// GraphDbAddress returns the graph database service address on the
// given node.
func GraphDbAddress(node string) Address { return Address{node: node, process: graphDbProcess} }

// PythonAddress returns the script runner service address on the
// given node.
func PythonAddress(node string) Address { return Address{node: node, process: pythonProcess} }

// ParseAddress parses the canonical "node@name:package:publisher" form.
func ParseAddress(s string) (Address, error) {
	node, process, ok := strings.Cut(s, "@")
	if !ok {
		return Address{}, fmt.Errorf("invalid address %q: want \"node@name:package:publisher\"", s)
	}
	return NewAddress(node, process)
}

// Node returns the node segment.
func (a Address) Node() string { return a.node }

// Process returns the "name:package:publisher" process segment.
func (a Address) Process() string { return a.process }

// String returns the canonical "node@name:package:publisher" form.
func (a Address) String() string { return a.node + "@" + a.process }

// IsZero reports whether a is the zero value.
func (a Address) IsZero() bool { return a.node == "" && a.process == "" }

// MarshalText implements encoding.TextMarshaler. The zero value
// marshals to an empty string.
func (a Address) MarshalText() ([]byte, error) {
	if a.IsZero() {
		return nil, nil
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces a zero value.
func (a *Address) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal Address: %w", err)
	}
	*a = parsed
	return nil
}
