// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/holium/process-lib/lib/codec"
	"github.com/holium/process-lib/lib/proto"
)

// kvWrite is one staged mutation inside an open transaction.
type kvWrite struct {
	key    string
	value  []byte
	delete bool
}

type kvTx struct {
	db     string
	writes []kvWrite
}

// kvService is the in-memory key-value backend. Transaction ids are
// issued monotonically and invalidated on commit; writes with a nil
// transaction id apply immediately.
type kvService struct {
	dataDir string

	mu           sync.Mutex
	databases    map[string]map[string][]byte
	transactions map[uint64]*kvTx
	nextTxID     uint64
}

func newKvService(dataDir string) *kvService {
	return &kvService{
		dataDir:      dataDir,
		databases:    make(map[string]map[string][]byte),
		transactions: make(map[uint64]*kvTx),
	}
}

func (s *kvService) handle(target string, action proto.Action, payload []byte) (proto.Response, []byte, *proto.ErrorDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == "" {
		return proto.Response{}, nil, kvInput(string(action.Op), "no database named")
	}

	if action.Op == proto.OpNew {
		if _, exists := s.databases[target]; exists {
			return proto.Response{}, nil, &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrDbExists, Detail: target}
		}
		s.databases[target] = make(map[string][]byte)
		return proto.Response{Status: proto.StatusOk}, nil, nil
	}

	database, exists := s.databases[target]
	if !exists {
		return proto.Response{}, nil, &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrNoDb, Detail: target}
	}

	switch action.Op {
	case proto.OpGet:
		value, ok := database[string(action.Key)]
		if !ok {
			return proto.Response{}, nil, &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrKeyNotFound, Detail: string(action.Key)}
		}
		return proto.Response{Status: proto.StatusGet, Key: action.Key}, value, nil

	case proto.OpSet:
		if payload == nil {
			return proto.Response{}, nil, kvInput("set", "set requires a value payload")
		}
		write := kvWrite{key: string(action.Key), value: payload}
		if detail := s.applyOrStage(target, database, action.TxID, write); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpDelete:
		write := kvWrite{key: string(action.Key), delete: true}
		if detail := s.applyOrStage(target, database, action.TxID, write); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpBeginTx:
		s.nextTxID++
		s.transactions[s.nextTxID] = &kvTx{db: target}
		return proto.Response{Status: proto.StatusBeginTx, TxID: s.nextTxID}, nil, nil

	case proto.OpCommit:
		if action.TxID == nil {
			return proto.Response{}, nil, kvInput("commit", "commit requires a transaction id")
		}
		tx, ok := s.transactions[*action.TxID]
		if !ok || tx.db != target {
			return proto.Response{}, nil, kvNoTx(*action.TxID)
		}
		for _, write := range tx.writes {
			apply(database, write)
		}
		delete(s.transactions, *action.TxID)
		return proto.Response{Status: proto.StatusOk}, nil, nil

	case proto.OpBackup:
		if detail := s.backup(target, database); detail != nil {
			return proto.Response{}, nil, detail
		}
		return proto.Response{Status: proto.StatusOk}, nil, nil

	default:
		return proto.Response{}, nil, kvInput(string(action.Op), "unknown kv operation")
	}
}

// applyOrStage applies a write directly (nil transaction id,
// auto-commit) or stages it in the named open transaction.
func (s *kvService) applyOrStage(target string, database map[string][]byte, txID *uint64, write kvWrite) *proto.ErrorDetail {
	if txID == nil {
		apply(database, write)
		return nil
	}
	tx, ok := s.transactions[*txID]
	if !ok || tx.db != target {
		return kvNoTx(*txID)
	}
	tx.writes = append(tx.writes, write)
	return nil
}

func apply(database map[string][]byte, write kvWrite) {
	if write.delete {
		delete(database, write.key)
		return
	}
	database[write.key] = write.value
}

// backup snapshots one database to a CBOR file in the data dir.
// Caller holds the service lock.
func (s *kvService) backup(target string, database map[string][]byte) *proto.ErrorDetail {
	snapshot, err := codec.Marshal(database)
	if err != nil {
		return &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrBackend, Action: "backup", Detail: err.Error()}
	}
	path := filepath.Join(s.dataDir, target+".kv.cbor")
	if err := os.WriteFile(path, snapshot, 0o600); err != nil {
		return &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrIO, Action: "backup", Detail: err.Error()}
	}
	return nil
}

func kvInput(action, detail string) *proto.ErrorDetail {
	return &proto.ErrorDetail{Service: proto.ServiceKv, Kind: proto.ErrInput, Action: action, Detail: detail}
}

func kvNoTx(txID uint64) *proto.ErrorDetail {
	return &proto.ErrorDetail{
		Service: proto.ServiceKv,
		Kind:    proto.ErrNoTx,
		Detail:  "no open transaction with id " + strconv.FormatUint(txID, 10),
	}
}
