// Package native implements the raw store on database/sql, with lib/pq for
// postgres and go-sqlite3 for sqlite.
package native

import (
	"context"
	"database/sql"
	"fmt"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	zlog "github.com/rs/zerolog/log"
)

type Store struct {
	db      *sql.DB
	dialect engine.Dialect
}

// Opens a postgres pool for dsn
func OpenPostgres(ctx context.Context, dsn string, pool config.Pool) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	// the number of idle connections should match the number of open ones,
	// otherwise connections are constantly closed and reopened between
	// operations and the reconnects end up in the measurements.
	db.SetMaxIdleConns(max(pool.MaxIdleConns, pool.MaxOpenConns))
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	return open(ctx, db, engine.Postgres, pool)
}

// Opens the sqlite database at path, creating it if needed
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	return open(ctx, db, engine.SQLite, config.Pool{})
}

func open(ctx context.Context, db *sql.DB, dialect engine.Dialect, pool config.Pool) (*Store, error) {
	s := &Store{db: db, dialect: dialect}

	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	zlog.Debug().Str("dialect", dialect.String()).Msg("Connected")
	return s, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() engine.Dialect {
	return s.dialect
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.db, s.dialect, query, args)
}

func (s *Store) Query(ctx context.Context, query string, args ...any) (engine.Rows, error) {
	return queryRows(ctx, s.db, s.dialect, query, args)
}

func (s *Store) QueryRow(ctx context.Context, query string, args ...any) engine.Row {
	return s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) InTx(ctx context.Context, fn func(q engine.Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&txQuerier{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}
	return tx.Commit()
}

// Common subset of *sql.DB and *sql.Tx
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func exec(ctx context.Context, conn sqlConn, dialect engine.Dialect, query string, args []any) (int64, error) {
	res, err := conn.ExecContext(ctx, dialect.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func queryRows(ctx context.Context, conn sqlConn, dialect engine.Dialect, query string, args []any) (engine.Rows, error) {
	rs, err := conn.QueryContext(ctx, dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return rows{rs}, nil
}

type rows struct {
	rs *sql.Rows
}

func (r rows) Next() bool             { return r.rs.Next() }
func (r rows) Scan(dest ...any) error { return r.rs.Scan(dest...) }
func (r rows) Err() error             { return r.rs.Err() }
func (r rows) Close()                 { r.rs.Close() }

type txQuerier struct {
	tx      *sql.Tx
	dialect engine.Dialect
}

func (q *txQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, q.tx, q.dialect, query, args)
}

func (q *txQuerier) Query(ctx context.Context, query string, args ...any) (engine.Rows, error) {
	return queryRows(ctx, q.tx, q.dialect, query, args)
}

func (q *txQuerier) QueryRow(ctx context.Context, query string, args ...any) engine.Row {
	return q.tx.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}
