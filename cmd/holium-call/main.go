// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// holium-call makes one service call against a node's unix socket
// and prints the result. It is a debugging tool for nodes started
// with holium-devnode.
//
// Usage:
//
//	holium-call --socket /run/holium.sock --package chess:holium.os kv new --db mydb
//	holium-call ... kv set --db mydb --key k --value v
//	holium-call ... kv get --db mydb --key k
//	holium-call ... graphdb read --db social --statement "SELECT * FROM person"
//	holium-call ... python run --script stats.py --func mean -- 40 44
//
// Exit status 1 is a usage or transport problem, 2 a protocol
// violation, 3 a service-reported error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/holium/process-lib/graphdb"
	"github.com/holium/process-lib/kv"
	"github.com/holium/process-lib/lib/call"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
	"github.com/holium/process-lib/python"
	"github.com/holium/process-lib/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitStatus(err))
	}
}

// exitStatus separates the three failure families so scripts can
// branch without parsing error text.
func exitStatus(err error) int {
	var protocolErr *call.ProtocolError
	if errors.As(err, &protocolErr) {
		return 2
	}
	var detail *proto.ErrorDetail
	if errors.As(err, &detail) {
		return 3
	}
	return 1
}

func run() error {
	var (
		socketPath string
		pkgName    string
		db         string
		key        string
		value      string
		txID       uint64
		statement  string
		table      string
		script     string
		function   string
	)
	pflag.StringVar(&socketPath, "socket", "", "node unix socket path (required)")
	pflag.StringVar(&pkgName, "package", "", "package identity, name:publisher (required)")
	pflag.StringVar(&db, "db", "", "database name")
	pflag.StringVar(&key, "key", "", "kv key")
	pflag.StringVar(&value, "value", "", "kv value")
	pflag.Uint64Var(&txID, "tx", 0, "kv transaction id")
	pflag.StringVar(&statement, "statement", "", "graphdb statement text")
	pflag.StringVar(&table, "table", "", "graphdb record table")
	pflag.StringVar(&script, "script", "", "python script path")
	pflag.StringVar(&function, "func", "", "python function name")
	pflag.Parse()

	if socketPath == "" || pkgName == "" {
		return fmt.Errorf("--socket and --package are required")
	}
	args := pflag.Args()
	if len(args) < 2 {
		return fmt.Errorf("usage: holium-call [flags] <kv|graphdb|python> <operation> [args]")
	}
	service, operation, rest := args[0], args[1], args[2:]

	pkg, err := ref.ParsePackageID(pkgName)
	if err != nil {
		return err
	}
	client, err := call.New(call.Config{
		Substrate: transport.NewUnixSubstrate(socketPath, nil),
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch service {
	case "kv":
		return kvCall(ctx, client, pkg, operation, db, key, value, txID)
	case "graphdb":
		return graphCall(ctx, client, pkg, operation, db, table, statement, rest)
	case "python":
		return pythonCall(ctx, client, pkg, operation, script, function, rest)
	default:
		return fmt.Errorf("unknown service %q (want kv, graphdb, or python)", service)
	}
}

func kvCall(ctx context.Context, client *call.Client, pkg ref.PackageID, operation, db, key, value string, txID uint64) error {
	if db == "" {
		return fmt.Errorf("kv %s: --db is required", operation)
	}
	var tx *uint64
	if txID != 0 {
		tx = &txID
	}
	store := kv.Open(client, pkg, db)

	switch operation {
	case "new":
		_, err := kv.New(ctx, client, pkg, db)
		return err
	case "get":
		got, err := store.Get(ctx, []byte(key))
		if err != nil {
			return err
		}
		os.Stdout.Write(got)
		fmt.Println()
		return nil
	case "set":
		return store.Set(ctx, []byte(key), []byte(value), tx)
	case "delete":
		return store.Delete(ctx, []byte(key), tx)
	case "begin-tx":
		id, err := store.BeginTx(ctx)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "commit":
		if tx == nil {
			return fmt.Errorf("kv commit: --tx is required")
		}
		return store.Commit(ctx, *tx)
	case "backup":
		return store.Backup(ctx)
	default:
		return fmt.Errorf("unknown kv operation %q", operation)
	}
}

func graphCall(ctx context.Context, client *call.Client, pkg ref.PackageID, operation, db, table, statement string, rest []string) error {
	if db == "" {
		return fmt.Errorf("graphdb %s: --db is required", operation)
	}
	if operation == "remove" {
		return graphdb.RemoveDB(ctx, client, pkg, db)
	}

	handle, err := graphdb.Open(ctx, client, pkg, db)
	if err != nil {
		return err
	}
	switch operation {
	case "open":
		return nil
	case "define-table":
		if table == "" {
			return fmt.Errorf("graphdb define-table: --table is required")
		}
		return handle.Define(ctx, proto.Resource{Kind: proto.ResourceTable, Name: table})
	case "statement":
		return handle.Statement(ctx, statement, nil)
	case "read":
		rows, err := handle.Read(ctx, statement)
		if err != nil {
			return err
		}
		// Rows print as JSON: CBOR round-trips to it cleanly and
		// every shell tool reads it.
		encoder := json.NewEncoder(os.Stdout)
		for _, row := range rows {
			if err := encoder.Encode(row); err != nil {
				return err
			}
		}
		return nil
	case "delete-records":
		if table == "" {
			return fmt.Errorf("graphdb delete-records: --table is required")
		}
		return handle.DeleteRecords(ctx, table, rest)
	case "backup":
		return handle.Backup(ctx)
	default:
		return fmt.Errorf("unknown graphdb operation %q", operation)
	}
}

func pythonCall(ctx context.Context, client *call.Client, pkg ref.PackageID, operation, script, function string, rest []string) error {
	if operation != "run" {
		return fmt.Errorf("unknown python operation %q (want run)", operation)
	}
	if script == "" || function == "" {
		return fmt.Errorf("python run: --script and --func are required")
	}
	output, err := python.NewRunner(client, pkg).RunScript(ctx, script, function, rest)
	if err != nil {
		return err
	}
	os.Stdout.Write(output)
	return nil
}
