package globalvar

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byName map[string]*Variable
}

func (r *fakeRepo) Get(_ context.Context, name string) (*Variable, error) {
	return r.byName[name], nil
}
func (r *fakeRepo) Create(_ context.Context, v *Variable) error { r.byName[v.Name] = v; return nil }
func (r *fakeRepo) Update(_ context.Context, v *Variable) error { r.byName[v.Name] = v; return nil }
func (r *fakeRepo) Delete(_ context.Context, name string) error { delete(r.byName, name); return nil }
func (r *fakeRepo) List(_ context.Context) ([]*Variable, error) { return nil, nil }

var tables = []ReferenceTable{
	{Table: "timeout_blocks", PlainRefColumns: []string{"input_reference"}},
	{Table: "formula_blocks", AliasColumns: []string{"aliases"}},
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, "sqlmock")

	mr := miniredis.RunT(t)
	kv := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := &fakeRepo{byName: map[string]*Variable{
		"V1": {ID: "v1", Name: "V1", Type: Float},
	}}
	return New(db, repo, kv, tables, "ERROR"), mock
}

func TestRename_UpdatesAllReferencingTablesAtomically(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE timeout_blocks SET input_reference = \? WHERE input_reference = \?`).
		WithArgs("GV:V2", "GV:V1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE formula_blocks SET aliases = REPLACE\(aliases, \?, \?\) WHERE aliases LIKE \?`).
		WithArgs("@GV:V1", "@GV:V2", "%@GV:V1%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE global_variables SET name = \? WHERE name = \?`).
		WithArgs("V2", "V1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Rename(context.Background(), "V1", "V2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRename_RollsBackOnFailure(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE timeout_blocks`).WillReturnError(assertErr)
	mock.ExpectRollback()

	err := svc.Rename(context.Background(), "V1", "V2")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RefusedWhileUsagesExist(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT id FROM timeout_blocks WHERE input_reference = \?`).
		WithArgs("GV:V1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-1"))
	mock.ExpectQuery(`SELECT id FROM formula_blocks WHERE aliases LIKE \?`).
		WithArgs("%@GV:V1%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.Delete(context.Background(), "V1")
	assert.Error(t, err)
}

var assertErr = errPlaceholder{}

type errPlaceholder struct{}

func (errPlaceholder) Error() string { return "boom" }
