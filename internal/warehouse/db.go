// Package warehouse opens the analytical store and executes sanitized
// read-only statements against it.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/consulta/consulta/internal/config"
)

// Open connects to the warehouse described by cfg and verifies the
// connection with a bounded ping. DuckDB files are opened read-only so
// a generated statement can never mutate the store even if it slipped
// past validation.
func Open(ctx context.Context, cfg config.WarehouseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse dsn is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = sql.Open("pgx", cfg.DSN)
	case "duckdb":
		db, err = sql.Open("duckdb", readOnlyDuckDBDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported warehouse driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open warehouse db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse db: %w", err)
	}

	return db, nil
}

func readOnlyDuckDBDSN(dsn string) string {
	if strings.Contains(dsn, "access_mode=") {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "access_mode=read_only"
}
