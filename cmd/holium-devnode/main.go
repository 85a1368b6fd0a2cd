// Copyright 2026 The Holium Authors
// SPDX-License-Identifier: Apache-2.0

// holium-devnode runs an in-process Holium dev node on a unix socket:
// the kv, graphdb, and python system services behind the real wire
// protocol, with capability grants loaded from a YAML config file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/holium/process-lib/devnode"
	"github.com/holium/process-lib/lib/proto"
	"github.com/holium/process-lib/lib/ref"
)

// nodeConfig is the YAML configuration file shape. Flags override
// the file's socket, data dir, and scripts dir.
type nodeConfig struct {
	Socket     string      `yaml:"socket"`
	DataDir    string      `yaml:"data_dir"`
	ScriptsDir string      `yaml:"scripts_dir"`
	Grants     []grantSpec `yaml:"grants"`
}

// grantSpec is one capability grant: a package, a service, and a
// target resource ("*" for all of the service's resources).
type grantSpec struct {
	Package string `yaml:"package"`
	Service string `yaml:"service"`
	Target  string `yaml:"target"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		socketPath string
		dataDir    string
		scriptsDir string
		logLevel   string
	)
	pflag.StringVar(&configPath, "config", "", "YAML config file (optional)")
	pflag.StringVar(&socketPath, "socket", "", "unix socket path to serve on")
	pflag.StringVar(&dataDir, "data-dir", "", "directory for service data and backups")
	pflag.StringVar(&scriptsDir, "scripts-dir", "", "directory the python service resolves scripts in")
	pflag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pflag.Parse()

	var cfg nodeConfig
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if scriptsDir != "" {
		cfg.ScriptsDir = scriptsDir
	}
	if cfg.Socket == "" {
		return fmt.Errorf("--socket (or socket: in the config file) is required")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("--data-dir (or data_dir: in the config file) is required")
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}

	node, err := devnode.New(devnode.Config{
		DataDir:    cfg.DataDir,
		ScriptsDir: cfg.ScriptsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer node.Close()

	for _, grant := range cfg.Grants {
		pkg, err := ref.ParsePackageID(grant.Package)
		if err != nil {
			return fmt.Errorf("grant for %q: %w", grant.Package, err)
		}
		service, err := parseService(grant.Service)
		if err != nil {
			return fmt.Errorf("grant for %q: %w", grant.Package, err)
		}
		node.Grant(pkg, service, grant.Target)
		logger.Info("capability granted",
			"package", grant.Package,
			"service", grant.Service,
			"target", grant.Target,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := devnode.NewServer(cfg.Socket, node, logger)
	return server.Serve(ctx)
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func parseService(name string) (proto.Service, error) {
	switch proto.Service(name) {
	case proto.ServiceKv, proto.ServiceGraphDb, proto.ServicePython:
		return proto.Service(name), nil
	default:
		return "", fmt.Errorf("unknown service %q (want kv, graphdb, or python)", name)
	}
}
