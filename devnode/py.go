// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

package devnode

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/holium/process-lib/lib/proto"
)

// ScriptFunc is a registered stand-in for a script function. The dev
// node runs no interpreter; tests and tools register Go functions
// under (script, function) and the service dispatches to them after
// the same path checks a real runner performs.
type ScriptFunc func(args []string) ([]byte, error)

type pythonService struct {
	scriptsDir string

	mu       sync.RWMutex
	registry map[string]ScriptFunc
}

func newPythonService(scriptsDir string) *pythonService {
	return &pythonService{
		scriptsDir: scriptsDir,
		registry:   make(map[string]ScriptFunc),
	}
}

func (s *pythonService) register(script, function string, fn ScriptFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[script+"\x00"+function] = fn
}

func (s *pythonService) handle(action proto.Action) (proto.Response, []byte, *proto.ErrorDetail) {
	if action.Op != proto.OpRunScript {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython,
			Kind:    proto.ErrInput,
			Action:  string(action.Op),
			Detail:  "unknown python operation",
		}
	}
	if action.Script == "" || action.Func == "" {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython, Kind: proto.ErrInput, Action: "run_script",
			Detail: "script and func are required",
		}
	}
	// Scripts resolve strictly inside the scripts directory.
	if strings.Contains(action.Script, "..") || filepath.IsAbs(action.Script) {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython, Kind: proto.ErrInput, Action: "run_script",
			Detail: "script path escapes the scripts directory: " + action.Script,
		}
	}

	path := filepath.Join(s.scriptsDir, action.Script)
	if _, err := os.Stat(path); err != nil {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython, Kind: proto.ErrIO, Action: "run_script",
			Detail: "no such script: " + action.Script,
		}
	}

	s.mu.RLock()
	fn, ok := s.registry[action.Script+"\x00"+action.Func]
	s.mu.RUnlock()
	if !ok {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython, Kind: proto.ErrIO, Action: "run_script",
			Detail: "no function " + action.Func + " in " + action.Script,
		}
	}

	output, err := fn(action.Args)
	if output == nil {
		output = []byte{}
	}
	if err != nil {
		return proto.Response{}, nil, &proto.ErrorDetail{
			Service: proto.ServicePython, Kind: proto.ErrBackend, Action: "run_script",
			Detail: err.Error(),
		}
	}
	return proto.Response{Status: proto.StatusData}, output, nil
}
