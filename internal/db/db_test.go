package db_test

import (
	"context"
	"testing"

	"portfolio-agent/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_MissingURLIsSentinel(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := db.NewPool(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNoDatabaseURL)
}

func TestNewPool_RejectsBadMaxConns(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ledger")
	t.Setenv("DB_MAX_CONNS", "zero")

	_, err := db.NewPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_CONNS")
}
