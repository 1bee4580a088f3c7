package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const createTimeoutConfigTable = `
CREATE TABLE timeout_configs (
	block_id TEXT PRIMARY KEY,
	interval INTEGER NOT NULL,
	timeout_seconds INTEGER NOT NULL
);`

type timeoutConfigRow struct {
	Interval       int `db:"interval"`
	TimeoutSeconds int `db:"timeout_seconds"`
}

func TestSQLBlockConfigRepository_CreateGetUpdateDelete(t *testing.T) {
	db := openTestDB(t, createTimeoutConfigTable)
	repo := NewSQLBlockConfigRepository[timeoutConfigRow](db, "timeout_configs")
	ctx := context.Background()

	cfg := &timeoutConfigRow{Interval: 5, TimeoutSeconds: 30}
	require.NoError(t, repo.Create(ctx, "block-1", cfg))

	got, err := repo.Get(ctx, "block-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 30, got.TimeoutSeconds)

	got.TimeoutSeconds = 60
	require.NoError(t, repo.Update(ctx, "block-1", got))

	updated, err := repo.Get(ctx, "block-1")
	require.NoError(t, err)
	require.Equal(t, 60, updated.TimeoutSeconds)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "block-1"))
	gone, err := repo.Get(ctx, "block-1")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestSQLBlockConfigRepository_ListWithIDs(t *testing.T) {
	db := openTestDB(t, createTimeoutConfigTable)
	repo := NewSQLBlockConfigRepository[timeoutConfigRow](db, "timeout_configs")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "block-1", &timeoutConfigRow{Interval: 5, TimeoutSeconds: 30}))
	require.NoError(t, repo.Create(ctx, "block-2", &timeoutConfigRow{Interval: 10, TimeoutSeconds: 60}))

	byID, err := repo.ListWithIDs(ctx)
	require.NoError(t, err)
	require.Len(t, byID, 2)
	require.Equal(t, 30, byID["block-1"].TimeoutSeconds)
	require.Equal(t, 60, byID["block-2"].TimeoutSeconds)
}

func TestSQLBlockConfigRepository_GetMissingReturnsNilNotError(t *testing.T) {
	db := openTestDB(t, createTimeoutConfigTable)
	repo := NewSQLBlockConfigRepository[timeoutConfigRow](db, "timeout_configs")

	got, err := repo.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, got)
}
