// Package app assembles the inventory service and sign-in provider shared by
// the web server and the terminal UI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/config"
	"github.com/vbonduro/jdginv/internal/db"
	"github.com/vbonduro/jdginv/internal/service"
	"github.com/vbonduro/jdginv/internal/store"
)

type App struct {
	Inventory *service.InventoryService
	Auth      *auth.Provider

	db     *sql.DB
	docs   *store.DocumentStore
	logger *slog.Logger
}

// Open opens the database at cfg.DBPath and builds the inventory service for
// cfg.Mode. Users are always kept in the database; in local mode the
// inventory itself lives only in memory.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return build(ctx, database, cfg, logger)
}

func build(ctx context.Context, database *sql.DB, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Auth:   auth.NewProvider(store.NewUserStore(database)),
		db:     database,
		logger: logger,
	}

	if cfg.AdminPassword != "" {
		if _, err := a.Auth.EnsureUser(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to provision admin user: %w", err)
		}
		logger.Info("admin user ready", "username", cfg.AdminUser)
	}

	if cfg.Connected() {
		a.docs = store.NewDocumentStore(database)
		a.Inventory = service.NewInventoryService(store.NewItemStore(a.docs), store.NewReportLogStore(a.docs), logger)
		a.Inventory.SetRetry(cfg.FeedRetry)
		logger.Info("inventory connected to document store", "path", cfg.DBPath)
	} else {
		a.Inventory = service.NewLocalInventoryService(logger)
		logger.Info("inventory running in local mode")
	}
	return a, nil
}

// Run keeps the inventory in sync with the store until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	a.Inventory.Run(ctx)
}

func (a *App) Close() {
	if a.docs != nil {
		a.docs.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}
