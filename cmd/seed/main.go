// Command seed loads a catalog snapshot file into the dbl_entries table, so an API
// backed by Postgres can serve a catalog synced before the database existed.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"dblsync/internal/catalog"
	"dblsync/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	logger := cfg.NewLogger(os.Stderr, "seed")
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", filepath.Join(cfg.DataDir, catalog.SnapshotFile), "snapshot file to load")
	_ = fs.Parse(os.Args[1:])

	if cfg.DBDSN == "" {
		logger.Fatal("DB_DSN is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}
	defer pool.Close()

	snap, err := catalog.LoadSnapshot(*file)
	if err != nil {
		logger.Fatal("failed to read snapshot", "file", *file, "err", err)
	}
	logger.Info("loading snapshot", "file", *file, "entries", len(snap))

	if err := catalog.NewPostgresRepo(pool).UpsertSnapshot(ctx, snap); err != nil {
		logger.Fatal("failed to upsert entries", "err", err)
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM dbl_entries").Scan(&total); err != nil {
		logger.Fatal("failed to count entries", "err", err)
	}
	logger.Info("seed complete", "upserted", len(snap), "total", total)
}
