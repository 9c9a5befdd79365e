package engine

import (
	"context"
	"regexp"
)

// Querier runs statements written with postgres style placeholders ($1, $2).
// Stores for other dialects rewrite them before execution.
type Querier interface {
	// Runs a statement and returns the number of affected rows
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

type Row interface {
	Scan(dest ...any) error
}

// Store is the raw relational engine behind a SQL backend
type Store interface {
	Querier
	// Runs fn in a transaction, committing when it returns nil and rolling
	// back otherwise
	InTx(ctx context.Context, fn func(q Querier) error) error
	Dialect() Dialect
	Ping(ctx context.Context) error
	Close() error
}

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Maximum number of bound parameters in one statement
func (d Dialect) MaxParams() int {
	if d == SQLite {
		return 32766
	}
	return 65535
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rewrites $n placeholders into the dialect's syntax
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return placeholder.ReplaceAllString(query, "?$1")
	}
	return query
}
