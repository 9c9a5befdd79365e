// Package pgxstore implements the raw store on a pgx connection pool.
package pgxstore

import (
	"context"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	zlog "github.com/rs/zerolog/log"
)

type Store struct {
	pool *pgxpool.Pool
}

// Opens a pool for dsn. A search_path query parameter becomes a runtime
// parameter of every connection.
func Open(ctx context.Context, dsn string, pool config.Pool) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(pool.MaxOpenConns)
	}
	if pool.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pool.ConnMaxIdleTime
	}
	if pool.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = pool.ConnectTimeout
	}
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	poolConfig.ConnConfig.StatementCacheCapacity = 100

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	s := &Store{pool: p}
	if err := s.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}

	zlog.Debug().Str("dialect", "postgres").Int32("maxConns", poolConfig.MaxConns).Msg("Connected")
	return s, nil
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Dialect() engine.Dialect {
	return engine.Postgres
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.pool, query, args)
}

func (s *Store) Query(ctx context.Context, query string, args ...any) (engine.Rows, error) {
	return queryRows(ctx, s.pool, query, args)
}

func (s *Store) QueryRow(ctx context.Context, query string, args ...any) engine.Row {
	return s.pool.QueryRow(ctx, query, args...)
}

func (s *Store) InTx(ctx context.Context, fn func(q engine.Querier) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(txQuerier{tx})
	})
}

// Common subset of *pgxpool.Pool and pgx.Tx
type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func exec(ctx context.Context, conn pgxConn, query string, args []any) (int64, error) {
	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func queryRows(ctx context.Context, conn pgxConn, query string, args []any) (engine.Rows, error) {
	rs, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

type txQuerier struct {
	tx pgx.Tx
}

func (q txQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, q.tx, query, args)
}

func (q txQuerier) Query(ctx context.Context, query string, args ...any) (engine.Rows, error) {
	return queryRows(ctx, q.tx, query, args)
}

func (q txQuerier) QueryRow(ctx context.Context, query string, args ...any) engine.Row {
	return q.tx.QueryRow(ctx, query, args...)
}
