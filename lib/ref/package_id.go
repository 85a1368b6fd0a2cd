// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// PackageID identifies the package (tenant) a request acts on behalf
// of. Capability checks on the remote service are evaluated against
// this identity, so it travels with every request.
//
// The canonical text form is "name:publisher", e.g. "chess:holium.os".
type PackageID struct {
	name      string
	publisher string
}

// NewPackageID creates a validated PackageID.
func NewPackageID(name, publisher string) (PackageID, error) {
	if err := validateSegment(name, "package name"); err != nil {
		return PackageID{}, fmt.Errorf("invalid package id: %w", err)
	}
	if err := validateSegment(publisher, "publisher"); err != nil {
		return PackageID{}, fmt.Errorf("invalid package id: %w", err)
	}
	return PackageID{name: name, publisher: publisher}, nil
}

// ParsePackageID parses the canonical "name:publisher" form.
func ParsePackageID(s string) (PackageID, error) {
	name, publisher, ok := strings.Cut(s, ":")
	if !ok {
		return PackageID{}, fmt.Errorf("invalid package id %q: want \"name:publisher\"", s)
	}
	return NewPackageID(name, publisher)
}

// Name returns the package name.
func (p PackageID) Name() string { return p.name }

// Publisher returns the publisher segment.
func (p PackageID) Publisher() string { return p.publisher }

// String returns the canonical "name:publisher" form.
func (p PackageID) String() string { return p.name + ":" + p.publisher }

// IsZero reports whether p is the zero value.
func (p PackageID) IsZero() bool { return p.name == "" && p.publisher == "" }

// MarshalText implements encoding.TextMarshaler. The zero value
// marshals to an empty string.
func (p PackageID) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return nil, nil
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces a zero value.
func (p *PackageID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = PackageID{}
		return nil
	}
	parsed, err := ParsePackageID(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal PackageID: %w", err)
	}
	*p = parsed
	return nil
}

// validateSegment checks that a reference segment is non-empty and
// contains only lowercase letters, digits, '-', '_', and '.'. Colons
// and '@' are reserved as separators in the text forms.
func validateSegment(s, what string) error {
	if s == "" {
		return fmt.Errorf("%s is empty", what)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%s %q contains invalid character %q", what, s, r)
		}
	}
	return nil
}
