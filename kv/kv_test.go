// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package kv

import (
	"bytes"
	"context"
	"testing"

	"github.com/holium/process-lib/lib/blob"
	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/transport"
)

// scriptedService registers a handler on the kv service address that
// decodes each request and answers via the respond callback.
func scriptedService(t *testing.T, respond func(request proto.Request, payload *blob.Blob) (proto.Response, []byte)) *call.Client {
	t.Helper()
	substrate := transport.NewMemorySubstrate(nil)
	substrate.Register(ref.KvAddress(ref.LocalNode), func(_ context.Context, msg transport.Message) transport.Message {
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
	pkg, err := ref.NewPackageID("chess", "holium.os")
	if err != nil {
		t.Fatalf("NewPackageID: %v", err)
	}
	return pkg
}

func TestGetMissingKeyIsKeyNotFound(t *testing.T) {
	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		return proto.Response{
			Status: proto.StatusErr,
			Error:  &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrKeyNotFound},
		}, nil
	})
	store := Open(client, testPackage(t), "mydb")

	value, err := store.Get(context.Background(), []byte("absent"))
	if err == nil {
		t.Fatal("expected key_not_found")
	}
	if !proto.IsKind(err, proto.ErrKeyNotFound) {
		t.Errorf("error is %v, want key_not_found", err)
	}
	if value != nil {
		t.Errorf("value = %q, want nil on error", value)
	}
}

func TestSetCarriesValueInBlob(t *testing.T) {
	value := []byte{1, 2, 3}
	var seen proto.Request
	var seenPayload []byte

	client := scriptedService(t, func(request proto.Request, payload *blob.Blob) (proto.Response, []byte) {
		seen = request
		if payload != nil {
			data, err := payload.Bytes()
			if err != nil {
				t.Errorf("reading request blob: %v", err)
			}
			seenPayload = data
		}
		return proto.Response{Status: proto.StatusOk}, nil
	})
	store := Open(client, testPackage(t), "mydb")

	if err := store.Set(context.Background(), []byte("k"), value, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if seen.Action.Op != proto.OpSet {
		t.Errorf("service saw op %q, want %q", seen.Action.Op, proto.OpSet)
	}
	if seen.Target != "mydb" {
		t.Errorf("service saw target %q, want mydb", seen.Target)
	}
	if seen.Action.TxID != nil {
		t.Errorf("auto-commit set carried tx id %d", *seen.Action.TxID)
	}
	if !bytes.Equal(seenPayload, value) {
		t.Errorf("service saw payload %v, want %v", seenPayload, value)
	}
}

func TestGetReturnsPayload(t *testing.T) {
	stored := []byte("the stored value")
	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		return proto.Response{Status: proto.StatusGet, Key: request.Action.Key}, stored
	})
	store := Open(client, testPackage(t), "mydb")

	value, err := store.Get(context.Background(), []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(value, stored) {
		t.Errorf("value = %q, want %q", value, stored)
	}
}

func TestTransactionPlumbing(t *testing.T) {
	const issued = uint64(9)
	var commitTxID *uint64

	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		switch request.Action.Op {
		case proto.OpBeginTx:
			return proto.Response{Status: proto.StatusBeginTx, TxID: issued}, nil
		case proto.OpCommit:
			commitTxID = request.Action.TxID
			return proto.Response{Status: proto.StatusOk}, nil
		default:
			t.Errorf("unexpected op %q", request.Action.Op)
			return proto.Response{Status: proto.StatusOk}, nil
		}
	})
	store := Open(client, testPackage(t), "mydb")

	txID, err := store.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if txID != issued {
		t.Errorf("txID = %d, want %d", txID, issued)
	}
	if err := store.Commit(context.Background(), txID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if commitTxID == nil || *commitTxID != issued {
		t.Errorf("commit carried tx id %v, want %d", commitTxID, issued)
	}
}

func TestNewOnExistingDbIsDbExists(t *testing.T) {
	client := scriptedService(t, func(request proto.Request, _ *blob.Blob) (proto.Response, []byte) {
		return proto.Response{
			Status: proto.StatusErr,
			Error:  &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrDbExists},
		}, nil
	})

	_, err := New(context.Background(), client, testPackage(t), "mydb")
	if err == nil {
		t.Fatal("expected db_exists")
	}
	if !proto.IsKind(err, proto.ErrDbExists) {
		t.Errorf("error is %v, want db_exists", err)
	}
}
