package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "select * from patients where id > $1 and phone = $12 limit $2"
	assert.Equal(t, q, Postgres.Rebind(q))
	assert.Equal(t, "select * from patients where id > ?1 and phone = ?12 limit ?2", SQLite.Rebind(q))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "postgres", Postgres.String())
	assert.Equal(t, "sqlite", SQLite.String())
	assert.Greater(t, Postgres.MaxParams(), SQLite.MaxParams())
}
