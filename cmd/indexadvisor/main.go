// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Command indexadvisor connects to a SQL Server instance, collects index
// usage and missing-index diagnostics, and prints an assessment report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file (optional, env vars work without one)")
		output      = flag.String("output", "", "report format: table, json or yaml")
		watch       = flag.Bool("watch", false, "keep collecting on an interval and report usage growth")
		debug       = flag.Bool("debug", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("indexadvisor %s (%s)\n", version, commit)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexadvisor: %v\n", err)
		os.Exit(1)
	}

	// Flags win over config file and environment.
	if *output != "" {
		cfg.Output = *output
	}
	if *watch {
		cfg.Watch = true
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "indexadvisor: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexadvisor: building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("indexadvisor failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

// newLogger writes structured logs to stderr so stdout stays clean for the
// rendered report.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
