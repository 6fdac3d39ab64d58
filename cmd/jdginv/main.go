package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/vbonduro/jdginv/internal/app"
	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/config"
	"github.com/vbonduro/jdginv/internal/framestore/local"
	"github.com/vbonduro/jdginv/internal/logging"
	"github.com/vbonduro/jdginv/internal/scanner"
	claudescanner "github.com/vbonduro/jdginv/internal/scanner/claude"
	ollamascanner "github.com/vbonduro/jdginv/internal/scanner/ollama"
	"github.com/vbonduro/jdginv/internal/web"
	"github.com/vbonduro/jdginv/internal/web/templates"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, cleanup, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: true})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return
	}
	defer func() {
		stop()
		a.Close()
	}()
	go a.Run(ctx)

	frames, err := local.NewLocalFrameStore(cfg.FramePath)
	if err != nil {
		logger.Error("failed to initialize frame store", "error", err)
		return
	}
	if n, err := frames.Purge(ctx); err != nil {
		logger.Warn("failed to clear old frames", "error", err)
	} else if n > 0 {
		logger.Info("cleared old frames", "count", n)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	}
	tokens := auth.NewTokens(secret, cfg.SessionTTL)

	server := web.NewServer(a.Inventory, a.Auth, tokens, newDecoder(cfg, logger), frames, templates.FS, logger)

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe(cfg.ListenAddr) }()

	select {
	case err := <-errc:
		logger.Error("server error", "error", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}

func newDecoder(cfg *config.Config, logger *slog.Logger) scanner.Decoder {
	switch cfg.ScannerBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when SCANNER_BACKEND=claude; scanning disabled")
			return scanner.Disabled{}
		}
		logger.Info("using Claude scan backend", "model", cfg.ClaudeModel)
		return claudescanner.NewClaudeDecoder(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama scan backend", "model", cfg.OllamaModel)
		return ollamascanner.NewOllamaDecoder(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("code scanning disabled")
		return scanner.Disabled{}
	}
}
