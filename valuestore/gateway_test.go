package valuestore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*Gateway, *miniredis.Miniredis, sqlmock.Sqlmock) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, "sqlmock")

	return New(kv, db, "ERROR"), mr, mock
}

func TestGateway_WriteOrAddThenGetRaw(t *testing.T) {
	g, _, mock := newTestGateway(t)
	mock.ExpectExec("INSERT INTO point_history_").WillReturnResult(sqlmock.NewResult(1, 1))

	at := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ok, err := g.WriteOrAdd(context.Background(), "pt-1", "42.5", &at, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := g.GetRaw(context.Background(), []string{"pt-1", "missing"})
	require.NoError(t, err)
	require.Contains(t, got, "pt-1")
	assert.NotContains(t, got, "missing")
	assert.Equal(t, "42.5", got["pt-1"].Value)
	assert.Equal(t, at.Unix(), got["pt-1"].Time)
}

func TestGateway_WriteOrAddWithDuration(t *testing.T) {
	g, mr, mock := newTestGateway(t)
	mock.ExpectExec("INSERT INTO point_history_").WillReturnResult(sqlmock.NewResult(1, 1))

	ok, err := g.WriteOrAdd(context.Background(), "pt-override", "1", nil, durationPtr(2*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(3 * time.Second)
	got, err := g.GetRaw(context.Background(), []string{"pt-override"})
	require.NoError(t, err)
	assert.NotContains(t, got, "pt-override")
}

func TestGateway_WriteOrAddWithDurationResumesPriorValue(t *testing.T) {
	g, mr, mock := newTestGateway(t)
	mock.ExpectExec("INSERT INTO point_history_").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO point_history_").WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := context.Background()
	ok, err := g.WriteOrAdd(ctx, "pt-override", "10", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.WriteOrAdd(ctx, "pt-override", "999", nil, durationPtr(2*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := g.GetRaw(ctx, []string{"pt-override"})
	require.NoError(t, err)
	assert.Equal(t, "999", got["pt-override"].Value)

	mr.FastForward(3 * time.Second)
	got, err = g.GetRaw(ctx, []string{"pt-override"})
	require.NoError(t, err)
	require.Contains(t, got, "pt-override")
	assert.Equal(t, "10", got["pt-override"].Value)
}

func TestGateway_TuningState(t *testing.T) {
	g, _, _ := newTestGateway(t)
	ctx := context.Background()

	type state struct {
		Peaks []float64 `json:"peaks"`
	}

	ok, err := g.GetTuningState(ctx, "pid-1", &state{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.SetTuningState(ctx, "pid-1", state{Peaks: []float64{1, 2, 3}}))

	var out state
	ok, err = g.GetTuningState(ctx, "pid-1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, out.Peaks)

	require.NoError(t, g.DeleteTuningState(ctx, "pid-1"))
	ok, err = g.GetTuningState(ctx, "pid-1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func durationPtr(d time.Duration) *time.Duration { return &d }
