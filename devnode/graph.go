// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/holium/process-lib/graphdb"
	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/sqlitepool"
)

// graphService backs the graph database protocol with one SQLite file
// per opened database. Record tables store one CBOR document per row;
// statement and read expose the SQL surface directly, with read
// restricted to SELECT.
type graphService struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.Mutex
	pools map[string]*sqlitepool.Pool
}

func newGraphService(dataDir string, logger *slog.Logger) *graphService {
	return &graphService{
		dataDir: dataDir,
		logger:  logger,
		pools:   make(map[string]*sqlitepool.Pool),
	}
}

func (s *graphService) handle(ctx context.Context, target string, action proto.Action, payload []byte) (proto.Response, []byte, *proto.ErrorDetail) {
	if target == "" {
		return proto.Response{}, nil, graphInput(string(action.Op), "no database named")
	}

	switch action.Op {
	case proto.OpOpen:
		if detail := s.open(target); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpRemoveDb:
		if detail := s.removeDb(target); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil
	}

	pool, detail := s.pool(target)
	if detail != nil {
		return proto.Response{}, nil, detail
	}

	switch action.Op {
	case proto.OpDefine:
		if action.Resource == nil {
			return proto.Response{}, nil, graphInput("define", "define requires a resource")
		}
		if detail := s.define(ctx, pool, *action.Resource); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpStatement:
		if detail := s.statement(ctx, pool, action, payload); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpRead:
		rows, detail := s.read(ctx, pool, action.Statement)
		if detail != nil {
			return proto.Response{}, nil, detail
		}
		encoded, err := codec.Marshal(rows)
		if err != nil {
			return proto.Response{}, nil, graphBackend("read", err.Error())
		}
		return proto.Response{Status: proto.StatusData}, encoded, nil

	case proto.OpCreate, proto.OpUpdate:
		if detail := s.writeRecords(ctx, pool, action, payload); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpDeleteRecords:
		if detail := s.deleteRecords(ctx, pool, action.Table, payload); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpBackup:
		if detail := s.backup(ctx, pool, target); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	default:
		return proto.Response{}, nil, graphInput(string(action.Op), "unknown graphdb operation")
	}
}

func (s *graphService) open(target string) *proto.ErrorDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[target]; ok {
		return nil
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(s.dataDir, target+".graph.db"),
		PoolSize: 2,
		Logger:   s.logger,
	})
	if err != nil {
		return graphBackend("open", err.Error())
	}
	s.pools[target] = pool
	return nil
}

func (s *graphService) removeDb(target string) *proto.ErrorDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[target]
	if !ok {
		return &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrNoDb, Detail: target}
	}
	delete(s.pools, target)
	if err := pool.Close(); err != nil {
		return graphBackend("remove_db", err.Error())
	}
	path := filepath.Join(s.dataDir, target+".graph.db")
	for _, file := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrIO, Action: "remove_db", Detail: err.Error()}
		}
	}
	return nil
}

func (s *graphService) pool(target string) (*sqlitepool.Pool, *proto.ErrorDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[target]
	if !ok {
		return nil, &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrNoDb, Detail: target}
	}
	return pool, nil
}

// define creates the backing table for a resource. Namespace and
// database kinds are accepted and recorded nowhere: a dev node
// database is a single file, so only tables have physical form.
func (s *graphService) define(ctx context.Context, pool *sqlitepool.Pool, resource proto.Resource) *proto.ErrorDetail {
	switch resource.Kind {
	case proto.ResourceNamespace, proto.ResourceDatabase:
		return nil
	case proto.ResourceTable:
		if !validTableName(resource.Name) {
			return graphInput("define", "invalid table name "+resource.Name)
		}
		stmt := `CREATE TABLE IF NOT EXISTS "` + resource.Name + `" (id TEXT PRIMARY KEY, doc BLOB NOT NULL)`
		return s.execute(ctx, pool, "define", stmt, nil)
	default:
		return graphInput("define", "unknown resource kind "+string(resource.Kind))
	}
}

func (s *graphService) statement(ctx context.Context, pool *sqlitepool.Pool, action proto.Action, payload []byte) *proto.ErrorDetail {
	var named map[string]any
	if action.HasParams {
		if payload == nil {
			return graphInput("statement", "params flagged but no payload attached")
		}
		var params []graphdb.Param
		if err := codec.Unmarshal(payload, &params); err != nil {
			return graphInput("statement", "unparsable params: "+err.Error())
		}
		named = make(map[string]any, len(params))
		for _, param := range params {
			named["$"+param.Name] = param.Value
		}
	}
	return s.execute(ctx, pool, "statement", action.Statement, named)
}

// read executes a read-only statement and returns its rows. The
// statement is prepared under an authorizer that permits only
// read-time operations, so CTEs like WITH ... SELECT pass while
// anything that writes is rejected before it runs.
func (s *graphService) read(ctx context.Context, pool *sqlitepool.Pool, statement string) ([]graphdb.Row, *proto.ErrorDetail) {
	conn, err := pool.Take(ctx)
	if err != nil {
		return nil, graphBackend("read", err.Error())
	}
	defer pool.Put(conn)

	if err := conn.SetAuthorizer(sqlite.AuthorizeFunc(func(action sqlite.Action) sqlite.AuthResult {
		switch action.Type() {
		case sqlite.OpSelect, sqlite.OpRead, sqlite.OpFunction, sqlite.OpRecursive:
			return sqlite.AuthResultOK
		default:
			return sqlite.AuthResultDeny
		}
	})); err != nil {
		return nil, graphBackend("read", err.Error())
	}
	defer conn.SetAuthorizer(nil)

	stmt, trailing, err := conn.PrepareTransient(strings.TrimSpace(statement))
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultAuth {
			return nil, graphInput("read", "read accepts only read-only statements")
		}
		return nil, graphBackend("read", err.Error())
	}
	defer stmt.Finalize()
	if trailing != 0 {
		return nil, graphInput("read", "read accepts a single statement")
	}

	var rows []graphdb.Row
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, graphBackend("read", err.Error())
		}
		if !hasRow {
			break
		}
		row := make(graphdb.Row, stmt.ColumnCount())
		for i := 0; i < stmt.ColumnCount(); i++ {
			row[stmt.ColumnName(i)] = columnValue(stmt, i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRecords inserts (create) or upserts (update) a batch of
// records from the request blob. Records keep their "id" field when
// present; create mints one otherwise.
func (s *graphService) writeRecords(ctx context.Context, pool *sqlitepool.Pool, action proto.Action, payload []byte) *proto.ErrorDetail {
	op := string(action.Op)
	if !validTableName(action.Table) {
		return graphInput(op, "invalid table name "+action.Table)
	}
	if payload == nil {
		return graphInput(op, "no record payload attached")
	}
	var records []graphdb.Row
	if err := codec.Unmarshal(payload, &records); err != nil {
		return graphInput(op, "unparsable records: "+err.Error())
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		return graphBackend(op, err.Error())
	}
	defer pool.Put(conn)

	stmt := `INSERT INTO "` + action.Table + `" (id, doc) VALUES ($id, $doc)`
	if action.Op == proto.OpUpdate {
		stmt += ` ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`
	}
	for _, record := range records {
		id, _ := record["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}
		doc, err := codec.Marshal(record)
		if err != nil {
			return graphInput(op, "unencodable record: "+err.Error())
		}
		err = sqlitex.ExecuteTransient(conn, stmt, &sqlitex.ExecOptions{
			Named: map[string]any{"$id": id, "$doc": doc},
		})
		if err != nil {
			return graphBackend(op, err.Error())
		}
	}
	return nil
}

func (s *graphService) deleteRecords(ctx context.Context, pool *sqlitepool.Pool, table string, payload []byte) *proto.ErrorDetail {
	if !validTableName(table) {
		return graphInput("delete_records", "invalid table name "+table)
	}
	if payload == nil {
		return graphInput("delete_records", "no id payload attached")
	}
	var ids []string
	if err := codec.Unmarshal(payload, &ids); err != nil {
		return graphInput("delete_records", "unparsable ids: "+err.Error())
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		return graphBackend("delete_records", err.Error())
	}
	defer pool.Put(conn)

	stmt := `DELETE FROM "` + table + `" WHERE id = $id`
	for _, id := range ids {
		err = sqlitex.ExecuteTransient(conn, stmt, &sqlitex.ExecOptions{
			Named: map[string]any{"$id": id},
		})
		if err != nil {
			return graphBackend("delete_records", err.Error())
		}
	}
	return nil
}

func (s *graphService) backup(ctx context.Context, pool *sqlitepool.Pool, target string) *proto.ErrorDetail {
	dest := filepath.Join(s.dataDir, target+".graph.backup.db")
	// VACUUM INTO refuses to overwrite; each backup replaces the last.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrIO, Action: "backup", Detail: err.Error()}
	}
	if err := pool.Backup(ctx, dest); err != nil {
		return graphBackend("backup", err.Error())
	}
	return nil
}

func (s *graphService) execute(ctx context.Context, pool *sqlitepool.Pool, op, statement string, named map[string]any) *proto.ErrorDetail {
	conn, err := pool.Take(ctx)
	if err != nil {
		return graphBackend(op, err.Error())
	}
	defer pool.Put(conn)

	var options *sqlitex.ExecOptions
	if named != nil {
		options = &sqlitex.ExecOptions{Named: named}
	}
	if err := sqlitex.ExecuteTransient(conn, statement, options); err != nil {
		return graphBackend(op, err.Error())
	}
	return nil
}

// close shuts every open pool down. Used by Node.Close.
func (s *graphService) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, pool := range s.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.pools, name)
	}
	return firstErr
}

func columnValue(stmt *sqlite.Stmt, col int) any {
	switch stmt.ColumnType(col) {
	case sqlite.TypeInteger:
		return stmt.ColumnInt64(col)
	case sqlite.TypeFloat:
		return stmt.ColumnFloat(col)
	case sqlite.TypeText:
		return stmt.ColumnText(col)
	case sqlite.TypeBlob:
		buf := make([]byte, stmt.ColumnLen(col))
		stmt.ColumnBytes(col, buf)
		return buf
	default:
		return nil
	}
}

// validTableName keeps interpolated identifiers boring: letters,
// digits, underscore, not starting with a digit.
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func graphInput(action, detail string) *proto.ErrorDetail {
	return &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrInput, Action: action, Detail: detail}
}

func graphBackend(action, detail string) *proto.ErrorDetail {
	return &proto.ErrorDetail{Service: proto.ServiceGraphDb, Kind: proto.ErrBackend, Action: action, Detail: detail}
}
