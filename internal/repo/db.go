// Package repo is the GORM persistence layer for movies, reviews and
// idempotency records. Every function takes the *gorm.DB to run on, so the
// same helpers work inside a transaction.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

type poolLimits struct {
	maxOpen, maxIdle int
}

var (
	sqlitePool   = poolLimits{maxOpen: 10, maxIdle: 10}
	postgresPool = poolLimits{maxOpen: 25, maxIdle: 10}
)

// Open connects to the store selected by cfg.Driver; empty means SQLite.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens or creates the database file at path. The parent
// directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite directory: %w", err)
		}
	}
	return open(sqlite.Open(sqliteDSN(path)), sqlitePool)
}

// OpenPostgres accepts a URL or keyword/value DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return open(postgres.Open(dsn), postgresPool)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func open(dialector gorm.Dialector, pool poolLimits) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: queryLogger(),
		// one offset for every stored timestamp keeps TEXT ordering chronological in SQLite
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// queryLogger routes GORM's slow-query and error output through zerolog.
func queryLogger() gormlogger.Interface {
	zl := log.Logger.With().Str("component", "gorm").Logger()
	return gormlogger.New(&zl, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// AutoMigrate creates or updates the catalog schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Movie{}, &domain.Review{}, &domain.Idempotency{})
}
