package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dblsync/internal/archive"
	"dblsync/internal/catalog"
	"dblsync/internal/config"
	"dblsync/internal/exceptions"
	"dblsync/internal/httpx"
	"dblsync/internal/ingest"
	"dblsync/internal/platform/crypto"
	"dblsync/internal/platform/dbl"
	"dblsync/internal/project"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	logger := cfg.NewLogger(os.Stderr, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		entries catalog.Reader = catalog.NewSnapshotStore(filepath.Join(cfg.DataDir, catalog.SnapshotFile))
		mirror  ingest.SnapshotMirror
		runs    ingest.Repository
		runList ingest.RunLister
		pingDB  func(context.Context) error
	)
	if cfg.DBDSN != "" {
		dbPool := mustOpenDB(logger, cfg.DBDSN)
		defer dbPool.Close()

		catalogRepo := catalog.NewPostgresRepo(dbPool)
		runRepo := ingest.NewPostgresRepo(dbPool)
		entries, mirror = catalogRepo, catalogRepo
		runs, runList = runRepo, runRepo
		pingDB = dbPool.Ping
	}

	deps := routes{
		catalog:  catalog.NewHTTPHandler(catalog.NewService(entries)),
		projects: project.NewHTTPHandler(cfg.DataDir, exceptions.Default(), logger.WithPrefix("project")),
		secret:   cfg.InternalSecret,
		ready:    readiness(cfg.DataDir, pingDB),
	}

	creds, err := config.ResolveCredentials(config.DefaultSources()...)
	if err != nil {
		logger.Warn("sync endpoint disabled", "err", err)
	} else {
		client := dbl.NewClient(crypto.NewSigner(creds), dbl.Config{
			BaseURL:    cfg.BaseURL,
			UserAgent:  cfg.UserAgent,
			RPS:        cfg.RPS,
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout,
		})
		builder := archive.NewBuilder(client, logger.WithPrefix("archive"))
		svc := ingest.NewService(client, builder, mirror, runs, logger.WithPrefix("sync"))
		deps.sync = ingest.NewHTTPHandler(svc, cfg.DataDir, ingest.Options{
			SkipLanguages: cfg.SkipLanguages,
			MapFile:       cfg.MapFile,
			Concurrency:   cfg.Concurrency,
			JobRetries:    cfg.JobRetries,
		}, runList)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(deps, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Minute, // a sync runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "addr", cfg.Addr, "data_dir", cfg.DataDir, "database", cfg.DBDSN != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", "err", err)
	}
}

type routes struct {
	catalog  *catalog.HTTPHandler
	projects *project.HTTPHandler
	sync     *ingest.HTTPHandler // nil without credentials
	secret   string
	ready    func(context.Context) error
}

func newRouter(d routes, logger *log.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /v1/entries", d.catalog.List)
	router.HandleFunc("GET /v1/entries/{key}", d.catalog.GetByKey)
	router.HandleFunc("GET /v1/projects", d.projects.List)
	router.HandleFunc("GET /v1/projects/{name}/text", d.projects.Text)

	if d.sync != nil {
		internal := httpx.InternalSecretMiddleware(d.secret)
		router.Handle("POST /internal/jobs/sync", internal(http.HandlerFunc(d.sync.Sync)))
		router.Handle("GET /internal/jobs/runs", internal(http.HandlerFunc(d.sync.Runs)))
	}

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(logger),
		httpx.AccessLogMiddleware(logger),
	)
}

// readiness checks the data directory and, when configured, the database.
func readiness(dataDir string, pingDB func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if fi, err := os.Stat(dataDir); err != nil {
			return err
		} else if !fi.IsDir() {
			return errors.New("data dir is not a directory")
		}
		if pingDB != nil {
			return pingDB(ctx)
		}
		return nil
	}
}

func mustOpenDB(logger *log.Logger, dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("cannot create db pool", "err", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Fatal("cannot ping database", "dsn", redactDSN(dsn), "err", err)
	}
	logger.Info("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
