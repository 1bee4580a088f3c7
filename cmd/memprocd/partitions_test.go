package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	file, err := os.CreateTemp("", "*.db")
	require.NoError(t, err)
	file.Close()
	t.Cleanup(func() { os.Remove(file.Name()) })

	db, err := sqlx.Open("sqlite3", file.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBootstrapHistoryPartitions_CreatesCurrentAndNextYear(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, bootstrapHistoryPartitions(context.Background(), db, now))

	for _, table := range []string{"point_history_2026_01", "point_history_2026_12", "point_history_2027_01", "point_history_2027_12"} {
		var count int
		err := db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		require.Equalf(t, 1, count, "expected table %s to exist", table)
	}
}

func TestBootstrapHistoryPartitions_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, bootstrapHistoryPartitions(context.Background(), db, now))
	require.NoError(t, bootstrapHistoryPartitions(context.Background(), db, now))
}
