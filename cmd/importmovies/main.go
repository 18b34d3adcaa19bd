// Command importmovies upserts movies from a JSON or YAML file into the
// catalog database.
//
//	importmovies -file movies.json
//
// Records that fail to resolve are logged and skipped. The exit status is 1
// only when the batch itself cannot run (bad config, unreadable source,
// database unavailable).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/observability"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/services"
	"github.com/tbourn/go-movie-catalog/internal/sysutil"
)

var version = "dev"

func main() {
	file := flag.String("file", "", "path to the movies file (.json, .yaml, .yml); defaults to IMPORT_PATH")
	flag.Parse()

	if err := run(*file); err != nil {
		fmt.Fprintln(os.Stderr, "importmovies:", err)
		os.Exit(1)
	}
}

func run(file string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
		return err
	}

	path := sysutil.FirstNonEmpty(file, cfg.ImportPath, "movies.json")
	sum, err := services.NewImporter(db).Run(ctx, path)
	if err != nil {
		return err
	}

	log.Info().
		Str("path", path).
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("errors", sum.Errors).
		Int64("total", sum.Total).
		Msg("import complete")
	return nil
}
