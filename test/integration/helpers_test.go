//go:build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"schoolbook/internal/api"
	"schoolbook/internal/app"
	"schoolbook/internal/config"
	"schoolbook/internal/db"
	"schoolbook/internal/domain"
	"schoolbook/internal/middleware"
	"schoolbook/internal/ui"
)

// ---------------------------------------------------------------------------
// CSV fixtures
// ---------------------------------------------------------------------------

const schoolsCSV = `SCHOOL_ID,SCHOOL_NM,SCH_ADDR,GRADE_CAT,GRADES,SCH_TYPE
609966,A School,123 Main St,Elementary,K-5,District
610002,B School,456 Oak Ave,High school,9-12,Charter
610124,C Academy,789 Pine Rd,Middle school,6-8,District
`

// schoolsCSVTrimmed drops C Academy so reload tests can observe the table
// being replaced rather than appended to.
const schoolsCSVTrimmed = `SCHOOL_ID,SCHOOL_NM,SCH_ADDR,GRADE_CAT,GRADES,SCH_TYPE
609966,A School,123 Main St,Elementary,K-5,District
610002,B School,456 Oak Ave,High school,9-12,Charter
`

// writeCSV writes content into a fresh temp dir and returns the file path.
func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Server fixture
// ---------------------------------------------------------------------------

// serverOpts tunes the test server. Zero values mean the production defaults
// with a rate limit generous enough to stay invisible.
type serverOpts struct {
	Dataset    string
	NameColumn string
	RateLimit  middleware.RateLimitConfig
}

// testEnv bundles the running server with the wired application so tests can
// drive loads directly through the ingestion service.
type testEnv struct {
	Server *httptest.Server
	App    *app.App
	Cfg    *config.Config

	// readDB is exposed so tests can break the ledger read path on purpose.
	readDB *sql.DB
}

// setupServer stands up the full HTTP stack over real store files in a temp
// dir: a DuckDB dataset store, a migrated SQLite ledger, and the same router
// wiring the server binary uses.
func setupServer(t *testing.T, opts serverOpts) *testEnv {
	t.Helper()

	if opts.Dataset == "" {
		opts.Dataset = "schools"
	}
	if opts.NameColumn == "" {
		opts.NameColumn = "SCHOOL_NM"
	}
	if opts.RateLimit.RequestsPerSecond == 0 {
		opts.RateLimit = middleware.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	}

	tmpDir := t.TempDir()
	cfg := &config.Config{
		DataDBPath:         filepath.Join(tmpDir, "schoolbook.duckdb"),
		MetaDBPath:         filepath.Join(tmpDir, "schoolbook_meta.sqlite"),
		Dataset:            opts.Dataset,
		NameColumn:         opts.NameColumn,
		ListenAddr:         ":0",
		Env:                "development",
		RateLimitRPS:       opts.RateLimit.RequestsPerSecond,
		RateLimitBurst:     opts.RateLimit.Burst,
		CORSAllowedOrigins: []string{"*"},
	}

	dataDB, err := db.OpenDuckDB(cfg.DataDBPath)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { dataDB.Close() })

	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		readDB.Close()
		writeDB.Close()
	})

	if err := db.RunMigrations(writeDB); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	application, err := app.New(context.Background(), app.Deps{
		Cfg:     cfg,
		DataDB:  dataDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("wire app: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimiter(opts.RateLimit))
	ui.MountRoutes(r, ui.NewHandler(application.Query, cfg.Dataset))
	api.MountRoutes(r, api.NewHandler(application.Query, cfg.Dataset, application.Health, logger), cfg.CORSAllowedOrigins)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{Server: srv, App: application, Cfg: cfg, readDB: readDB}
}

// loadCSV runs one load through the ingestion service, the same path the CLI
// and the refresh scheduler take.
func loadCSV(t *testing.T, env *testEnv, dataset, csvPath, nameColumn string) {
	t.Helper()
	_, err := env.App.Ingestion.Load(context.Background(), domain.Dataset{
		Name:       dataset,
		CSVPath:    csvPath,
		NameColumn: nameColumn,
	})
	if err != nil {
		t.Fatalf("load %s: %v", dataset, err)
	}
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

// doRequest performs one request against the test server. The response body
// is closed by t.Cleanup, so callers read it without their own defer.
func doRequest(t *testing.T, method, url string, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	return doRequest(t, http.MethodGet, url, nil)
}

// readBody drains the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// decodeJSON decodes the response body into out.
func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
