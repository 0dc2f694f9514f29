// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/voxkit/websearch/pkg/adapters/http"
	"github.com/voxkit/websearch/pkg/assistant"
	"github.com/voxkit/websearch/pkg/core/config"
	"github.com/voxkit/websearch/pkg/functions"
	"github.com/voxkit/websearch/pkg/observability/logging"
	"github.com/voxkit/websearch/pkg/profiles"

	_ "github.com/voxkit/websearch/pkg/profiles/memory"
	_ "github.com/voxkit/websearch/pkg/profiles/postgres"
	_ "github.com/voxkit/websearch/pkg/profiles/sqlite"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 8080, "HTTP port to listen on")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("Web Search Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting Web Search Gateway Server",
		"version", Version,
		"build_time", BuildTime)
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr)
	}

	if *port != 8080 {
		cfg.Server.Port = *port
	}

	initCtx := context.Background()

	store, err := profiles.Open(initCtx, cfg.Profiles.Type, cfg.Profiles.DSN)
	if err != nil {
		logger.Error("Failed to open profile store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Initialized profile store", "type", cfg.Profiles.Type)

	fns := functions.NewRegistry()
	webSearch := functions.NewWebSearch(logger.Component("web_search"), nil)
	if err := fns.Register(webSearch.Function()); err != nil {
		logger.Error("Failed to register web_search", "error", err)
		os.Exit(1)
	}
	logger.Info("Registered functions", "count", len(fns.Definitions()))

	var agent httpAdapter.Assistant
	if cfg.LLM.Model != "" {
		agent = assistant.NewOpenAI(cfg.LLM, fns, logger.Component("assistant"))
		logger.Info("Initialized assistant", "endpoint", cfg.LLM.Endpoint, "model", cfg.LLM.Model)
	} else {
		logger.Info("No language model configured, chat endpoint disabled")
	}

	handler := httpAdapter.New(cfg, fns, agent, store, logger)
	logger.Info("Initialized HTTP adapter")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
