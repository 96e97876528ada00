// Command novelgrokd serves the novelgrok HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yujiapingyu/novelgrok/internal/api"
	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/config"
	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── LLM Client ───────────────────────────────────────────────────
	client := llm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	if client.Enabled() {
		slog.Info("LLM client enabled", "model", client.Model(), "base_url", client.BaseURL())
	} else {
		slog.Warn("XAI_API_KEY not set; generation and analysis endpoints disabled")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("NOVELGROK_ADMIN_KEY not set; admin POST endpoints will be disabled")
	}

	server := &api.Server{
		DB:       db,
		LLM:      client,
		Asm:      assembler.New(cfg.MaxTokens),
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	server.Start()

	fmt.Printf("novelgrokd listening on http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}
