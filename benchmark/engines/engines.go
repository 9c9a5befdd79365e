// Package engines selects a backend by name.
package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clinicbench/benchmark"
	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/benchmark/engines/gormengine"
	"clinicbench/benchmark/engines/native"
	"clinicbench/benchmark/engines/pgxstore"
	"clinicbench/benchmark/engines/sqlcore"
	"clinicbench/config"
)

// Returns the engine named name. Connections are opened by Initialize.
func New(name string, cfg *config.Config) (benchmark.Engine, error) {
	switch name {
	case "native", "pgx", "sqlite":
		return sqlcore.New(name, func(ctx context.Context) (engine.Store, error) {
			return OpenStore(ctx, name, cfg)
		}), nil
	case "gorm":
		dsn, err := cfg.DSN(name)
		if err != nil {
			return nil, err
		}
		options, err := gormengine.ParseOptions(cfg.FileData)
		if err != nil {
			return nil, fmt.Errorf("gorm options: %w", err)
		}
		return gormengine.New(dsn, cfg.Pool, options), nil
	default:
		return nil, fmt.Errorf("backend '%s' not found", name)
	}
}

// Opens the raw store holding the tables of backend name. Each postgres
// backend owns the schema named after it; gorm's schema is reached through
// database/sql.
func OpenStore(ctx context.Context, name string, cfg *config.Config) (engine.Store, error) {
	switch name {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return native.OpenSQLite(ctx, cfg.SQLitePath)
	case "native", "pgx", "gorm":
		dsn, err := cfg.DSN(name)
		if err != nil {
			return nil, err
		}
		if name == "pgx" {
			return pgxstore.Open(ctx, dsn, cfg.Pool)
		}
		return native.OpenPostgres(ctx, dsn, cfg.Pool)
	default:
		return nil, fmt.Errorf("backend '%s' not found", name)
	}
}
