// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"testing"

	"github.com/holium/process-lib/lib/codec"
)

func TestPackageIDParse(t *testing.T) {
	tests := []struct {
		input     string
		wantErr   bool
		name      string
		publisher string
	}{
		{input: "chess:holium.os", name: "chess", publisher: "holium.os"},
		{input: "my_app:dev", name: "my_app", publisher: "dev"},
		{input: "chess", wantErr: true},
		{input: ":holium.os", wantErr: true},
		{input: "chess:", wantErr: true},
		{input: "Chess:holium.os", wantErr: true},
		{input: "chess:pub lisher", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, test := range tests {
		pkg, err := ParsePackageID(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParsePackageID(%q): expected error, got %v", test.input, pkg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePackageID(%q): %v", test.input, err)
		}
		if pkg.Name() != test.name || pkg.Publisher() != test.publisher {
			t.Errorf("ParsePackageID(%q) = %v, want %s:%s", test.input, pkg, test.name, test.publisher)
		}
		if pkg.String() != test.input {
			t.Errorf("String() = %q, want %q", pkg.String(), test.input)
		}
	}
}

func TestAddressParse(t *testing.T) {
	addr, err := ParseAddress("our@kv:sys:holium")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if addr.Node() != "our" {
		t.Errorf("Node() = %q, want %q", addr.Node(), "our")
	}
	if addr.Process() != "kv:sys:holium" {
		t.Errorf("Process() = %q, want %q", addr.Process(), "kv:sys:holium")
	}

	invalid := []string{
		"",
		"our",
		"our@kv:sys",
		"our@kv:sys:holium:extra",
		"@kv:sys:holium",
		"our@kv::holium",
	}
	for _, input := range invalid {
		if _, err := ParseAddress(input); err == nil {
			t.Errorf("ParseAddress(%q): expected error", input)
		}
	}
}

// References cross the wire inside envelope structs, so they must
// survive a CBOR round trip as text strings.
func TestReferenceCBORRoundTrip(t *testing.T) {
	pkg, err := NewPackageID("chess", "holium.os")
	if err != nil {
		t.Fatalf("NewPackageID: %v", err)
	}
	addr, err := NewAddress(LocalNode, "graphdb:sys:holium")
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}

	type wrapper struct {
		Package PackageID `cbor:"package"`
		Target  Address   `cbor:"target"`
	}
	encoded, err := codec.Marshal(wrapper{Package: pkg, Target: addr})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded wrapper
	if err := codec.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Package != pkg {
		t.Errorf("package round trip: got %v, want %v", decoded.Package, pkg)
	}
	if decoded.Target != addr {
		t.Errorf("address round trip: got %v, want %v", decoded.Target, addr)
	}
}

func TestZeroValueMarshalsEmpty(t *testing.T) {
	data, err := PackageID{}.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("zero PackageID marshaled to %q", data)
	}

	var pkg PackageID
	if err := pkg.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !pkg.IsZero() {
		t.Errorf("unmarshaled empty text is not zero: %v", pkg)
	}
}
