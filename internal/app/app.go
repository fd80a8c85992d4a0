// Package app wires repositories and services from the open database
// handles. The server, the CLI, and tests all share this composition root.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"schoolbook/internal/config"
	"schoolbook/internal/db/repository"
	"schoolbook/internal/ddl"
	"schoolbook/internal/domain"
	"schoolbook/internal/manifest"
	"schoolbook/internal/service/ingestion"
	"schoolbook/internal/service/query"
)

// Deps holds the external dependencies that main() must provide: config and
// open database handles.
type Deps struct {
	Cfg     *config.Config
	DataDB  *sql.DB // DuckDB dataset store
	WriteDB *sql.DB // SQLite ledger, write pool
	ReadDB  *sql.DB // SQLite ledger, read pool
	Logger  *slog.Logger
}

// App is the fully-wired application: the load and read services plus the
// manifest datasets when a manifest is configured.
type App struct {
	Ingestion *ingestion.Service
	Query     *query.Service
	Datasets  []domain.Dataset // nil without a manifest

	deps Deps
}

// New wires repositories and services from the provided deps. Ledger writes
// go through the write pool, serving-path reads through the read pool. When
// S3 credentials are configured the DuckDB secret is created so s3:// CSV
// paths resolve during loads.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	store := repository.NewRecordStore(deps.DataDB)
	writeLedger := repository.NewLoadLedger(deps.WriteDB)
	readLedger := repository.NewLoadLedger(deps.ReadDB)

	ingestionSvc := ingestion.NewService(store, writeLedger, deps.Logger.With("component", "ingestion"))
	querySvc := query.NewService(store, readLedger, cfg.NameColumn, deps.Logger.With("component", "query"))

	var datasets []domain.Dataset
	if cfg.ManifestPath != "" {
		m, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		datasets = m.Domain()
		for _, ds := range datasets {
			if ds.NameColumn != "" {
				querySvc.SetNameColumn(ds.Name, ds.NameColumn)
			}
		}
	}

	if cfg.HasS3Config() {
		stmt, err := ddl.CreateS3Secret("schoolbook_s3", *cfg.S3KeyID, *cfg.S3Secret, *cfg.S3Endpoint, *cfg.S3Region, "path")
		if err != nil {
			return nil, fmt.Errorf("build s3 secret: %w", err)
		}
		if _, err := deps.DataDB.ExecContext(ctx, stmt); err != nil {
			deps.Logger.Warn("create s3 secret failed, s3:// loads will not work", "error", err)
		} else {
			deps.Logger.Info("s3 secret created", "endpoint", *cfg.S3Endpoint)
		}
	}

	return &App{
		Ingestion: ingestionSvc,
		Query:     querySvc,
		Datasets:  datasets,
		deps:      deps,
	}, nil
}

// Health pings both stores.
func (a *App) Health(ctx context.Context) error {
	if err := a.deps.DataDB.PingContext(ctx); err != nil {
		return fmt.Errorf("data store: %w", err)
	}
	if err := a.deps.ReadDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return nil
}
