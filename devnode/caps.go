// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"fmt"
	"sync"

	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
)

// GrantAll is the target wildcard: a grant with this target covers
// every resource of the service.
const GrantAll = "*"

type capability struct {
	pkg     string
	service proto.Service
	target  string
}

// capabilityTable is the node's grant set. Checks are exact on
// (package, service, target), with GrantAll matching any target.
// The node performs the check before any service logic runs; the
// client performs none.
type capabilityTable struct {
	mu     sync.RWMutex
	grants map[capability]struct{}
}

func newCapabilityTable() *capabilityTable {
	return &capabilityTable{grants: make(map[capability]struct{})}
}

func (t *capabilityTable) grant(pkg ref.PackageID, service proto.Service, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grants[capability{pkg: pkg.String(), service: service, target: target}] = struct{}{}
}

func (t *capabilityTable) revoke(pkg ref.PackageID, service proto.Service, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.grants, capability{pkg: pkg.String(), service: service, target: target})
}

// check returns nil when pkg may act on (service, target), or a
// no_cap error naming the rejected scope.
func (t *capabilityTable) check(pkg ref.PackageID, service proto.Service, target string) *proto.ErrorDetail {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.grants[capability{pkg: pkg.String(), service: service, target: target}]; ok {
		return nil
	}
	if _, ok := t.grants[capability{pkg: pkg.String(), service: service, target: GrantAll}]; ok {
		return nil
	}
	return &proto.ErrorDetail{
		Service: service,
		Kind:    proto.ErrNoCap,
		Detail:  fmt.Sprintf("%s is not granted %s access to %q", pkg, service, target),
	}
}
