// Package db opens the SQL database used by the sql-backed snapshot stores
// and creates their schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Tommy88/xparser/internal/observability/metrics"
	"github.com/Tommy88/xparser/internal/pkg/config"
)

// Supported drivers, named after the storage setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// The worker runs one pass at a time, so the pool stays small.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates a connection pool for driver and verifies it with a ping.
// SQLite is limited to a single connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open %s: empty DSN", driver)
	}

	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("open: unsupported driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	cfg := getConnectionConfigFromEnv()
	if driver == DriverSQLite {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("driver", driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

// getConnectionConfigFromEnv reads pool overrides. Invalid values keep the defaults.
func getConnectionConfigFromEnv() ConnectionConfig {
	def := DefaultConnectionConfig()
	c := config.NewCollector(slog.Default(), nil)
	cfg := ConnectionConfig{
		MaxOpenConns:    config.Field(c, "db_max_open_conns", config.LoadInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, config.IntBetween(1, 100))),
		MaxIdleConns:    config.Field(c, "db_max_idle_conns", config.LoadInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, config.IntBetween(1, 100))),
		ConnMaxLifetime: config.Field(c, "db_conn_max_lifetime", config.LoadDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration)),
		ConnMaxIdleTime: config.Field(c, "db_conn_max_idle_time", config.LoadDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration)),
	}
	return cfg
}

// ReportStats publishes the pool's in-use and idle connection counts.
func ReportStats(db *sql.DB) {
	stats := db.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
}
