// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package graphdb

import (
	"context"
	"errors"
	"testing"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/transport"
)

func scriptedService(t *testing.T, respond func(request proto.Request, payload *blob.Blob) (proto.Response, []byte)) *call.Client {
	t.Helper()
	substrate := transport.NewMemorySubstrate(nil)
	substrate.Register(ref.GraphDbAddress(ref.LocalNode), func(_ context.Context, msg transport.Message) transport.Message {
		request, err := proto.DecodeRequest(msg.Body)
		if err != nil {
			t.Errorf("service received undecodable request: %v", err)
			return transport.Message{}
		}
		response, payload := respond(request, msg.Blob)
		body, err := response.Encode()
		if err != nil {
			t.Errorf("encoding response: %v", err)
			return transport.Message{}
		}
		reply := transport.Message{Body: body}
		if payload != nil {
			reply.Blob, err = blob.Encode(payload)
			if err != nil {
				t.Errorf("encoding reply blob: %v", err)
			}
		}
		return reply
	})
	client, err := call.New(call.Config{Substrate: substrate})
	if err != nil {
		t.Fatalf("call.New: %v", err)
	}
	return client
}

func testPackage(t *testing.T) ref.PackageID {
	t.Helper()
	pkg, err := ref.NewPackageID("contacts", "holium.os")
	if err != nil {
		t.Fatalf("NewPackageID: %v", err)
	}
	return pkg
}

func openTestDB(t *testing.T, client *call.Client) *DB {
	t.Helper()
	db, err := Open(context.Background(), client, testPackage(t), "social")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db
}

func okService(t *testing.T) (*call.Client, *struct {
	request proto.Request
	payload []byte
}) {
	t.Helper()
	seen := &struct {
		request proto.Request
		payload []byte
	}{}
	client := scriptedService(t, func(request proto.Request, payload *blob.Blob) (proto.Response, []byte) {
		seen.request = request
		if payload != nil {
			data, err := payload.Bytes()
			if err != nil {
				t.Errorf("reading request blob: %v", err)
			}
			seen.payload = data
		}
		return proto.Response{Status: proto.StatusOk}, nil
	})
	return client, seen
}

func TestStatementParamsTravelInBlob(t *testing.T) {
	client, seen := okService(t)
	db := openTestDB(t, client)

	params := []Param{{Name: "name", Value: "ada"}, {Name: "age", Value: int64(36)}}
	err := db.Statement(context.Background(), "UPDATE person SET age = $age WHERE name = $name", params)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if seen.request.Action.Op != proto.OpStatement {
		t.Errorf("service saw op %q, want %q", seen.request.Action.Op, proto.OpStatement)
	}
	if !seen.request.Action.HasParams {
		t.Error("action does not flag the parameter blob")
	}
	var decoded []Param
	if err := codec.Unmarshal(seen.payload, &decoded); err != nil {
		t.Fatalf("decoding param blob: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Name != "name" || decoded[1].Name != "age" {
		t.Errorf("decoded params = %+v", decoded)
	}
}

func TestStatementWithoutParamsSendsNoBlob(t *testing.T) {
	client, seen := okService(t)
	db := openTestDB(t, client)

	if err := db.Statement(context.Background(), "DEFINE INDEX name ON person", nil); err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if seen.request.Action.HasParams {
		t.Error("action flags params that were never given")
	}
	if seen.payload != nil {
		t.Errorf("service saw payload %v, want none", seen.payload)
	}
}

func TestReadDecodesRows(t *testing.T) {
	rows := []Row{
		{"name": "ada", "age": int64(36)},
		{"name": "grace", "age": int64(45)},
	}
	encoded, err := codec.Marshal(rows)
	if err != nil {
		t.Fatalf("encoding rows: %v", err)
	}

	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		if request.Action.Op == proto.OpOpen {
			return proto.Response{Status: proto.StatusOk}, nil
		}
		return proto.Response{Status: proto.StatusData}, encoded
	})
	db := openTestDB(t, client)

	got, err := db.Read(context.Background(), "SELECT * FROM person")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0]["name"] != "ada" || got[1]["name"] != "grace" {
		t.Errorf("rows = %+v", got)
	}
}

func TestBackendErrorCarriesActionAndReason(t *testing.T) {
	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		if request.Action.Op == proto.OpOpen {
			return proto.Response{Status: proto.StatusOk}, nil
		}
		return proto.Response{
			Status: proto.StatusErr,
			Error: &proto.ErrorDetail{
				Service: proto.ServiceGraphDb,
				Kind:    proto.ErrBackend,
				Action:  string(request.Action.Op),
				Detail:  "syntax error near FORM",
			},
		}, nil
	})
	db := openTestDB(t, client)

	err := db.Statement(context.Background(), "SELECT * FORM person", nil)
	if err == nil {
		t.Fatal("expected backend error")
	}
	var detail *proto.ErrorDetail
	if !errors.As(err, &detail) {
		t.Fatalf("error is %T, want *proto.ErrorDetail", err)
	}
	if detail.Kind != proto.ErrBackend {
		t.Errorf("kind = %q, want backend", detail.Kind)
	}
	if detail.Action != string(proto.OpStatement) {
		t.Errorf("action = %q, want %q", detail.Action, proto.OpStatement)
	}
	if detail.Detail == "" {
		t.Error("backend error has no reason text")
	}
}

func TestRecordOpsCarryRecordsInBlob(t *testing.T) {
	client, seen := okService(t)
	db := openTestDB(t, client)

	records := []Row{{"id": "person:ada", "name": "ada"}}
	if err := db.Create(context.Background(), "person", records); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if seen.request.Action.Op != proto.OpCreate || seen.request.Action.Table != "person" {
		t.Errorf("service saw %q on table %q", seen.request.Action.Op, seen.request.Action.Table)
	}
	var decoded []Row
	if err := codec.Unmarshal(seen.payload, &decoded); err != nil {
		t.Fatalf("decoding record blob: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["name"] != "ada" {
		t.Errorf("decoded records = %+v", decoded)
	}

	if err := db.DeleteRecords(context.Background(), "person", []string{"person:ada"}); err != nil {
		t.Fatalf("DeleteRecords: %v", err)
	}
	var ids []string
	if err := codec.Unmarshal(seen.payload, &ids); err != nil {
		t.Fatalf("decoding id blob: %v", err)
	}
	if len(ids) != 1 || ids[0] != "person:ada" {
		t.Errorf("decoded ids = %v", ids)
	}
}

func TestOpenNoCapSurfacesScope(t *testing.T) {
	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		return proto.Response{
			Status: proto.StatusErr,
			Error: &proto.ErrorDetail{
				Service: proto.ServiceGraphDb,
				Kind:    proto.ErrNoCap,
				Detail:  "contacts:holium.os is not granted graphdb access to \"social\"",
			},
		}, nil
	})

	_, err := Open(context.Background(), client, testPackage(t), "social")
	if err == nil {
		t.Fatal("expected no_cap")
	}
	if !proto.IsKind(err, proto.ErrNoCap) {
		t.Errorf("error is %v, want no_cap", err)
	}
	var detail *proto.ErrorDetail
	if !errors.As(err, &detail) || detail.Detail == "" {
		t.Error("no_cap error does not name the rejected scope")
	}
}
