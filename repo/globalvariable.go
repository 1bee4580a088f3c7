// Copyright 2026 Sonic Labs
// This file is part of Memproc.
//
// Memproc is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Memproc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Memproc. If not, see <http://www.gnu.org/licenses/>.

package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/0xsoniclabs/memproc/globalvar"
	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

// globalVariableRow mirrors the global_variables table.
type globalVariableRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Type       string `db:"type"`
	Value      string `db:"value"`
	IsDisabled bool   `db:"is_disabled"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

// SQLGlobalVariableRepository is a globalvar.Repository backed by the
// relational store, in the same idiom as SQLPointRepository.
type SQLGlobalVariableRepository struct {
	db *sqlx.DB
}

// NewSQLGlobalVariableRepository builds a SQLGlobalVariableRepository.
func NewSQLGlobalVariableRepository(db *sqlx.DB) *SQLGlobalVariableRepository {
	return &SQLGlobalVariableRepository{db: db}
}

func (r *SQLGlobalVariableRepository) Get(ctx context.Context, name string) (*globalvar.Variable, error) {
	var row globalVariableRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT id, name, type, value, is_disabled, created_at, updated_at FROM global_variables WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.TransientStore("get global variable", err)
	}
	v := rowToVariable(row)
	return &v, nil
}

func (r *SQLGlobalVariableRepository) Create(ctx context.Context, v *globalvar.Variable) error {
	row := variableToRow(*v)
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO global_variables (id, name, type, value, is_disabled, created_at, updated_at)
		 VALUES (:id, :name, :type, :value, :is_disabled, :created_at, :updated_at)`, row)
	if err != nil {
		return memerr.TransientStore("create global variable", err)
	}
	return nil
}

func (r *SQLGlobalVariableRepository) Update(ctx context.Context, v *globalvar.Variable) error {
	row := variableToRow(*v)
	_, err := r.db.NamedExecContext(ctx,
		`UPDATE global_variables SET value = :value, is_disabled = :is_disabled, updated_at = :updated_at
		 WHERE name = :name`, row)
	if err != nil {
		return memerr.TransientStore("update global variable", err)
	}
	return nil
}

func (r *SQLGlobalVariableRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM global_variables WHERE name = ?`), name)
	if err != nil {
		return memerr.TransientStore("delete global variable", err)
	}
	return nil
}

func (r *SQLGlobalVariableRepository) List(ctx context.Context) ([]*globalvar.Variable, error) {
	var rows []globalVariableRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, type, value, is_disabled, created_at, updated_at FROM global_variables`)
	if err != nil {
		return nil, memerr.TransientStore("list global variables", err)
	}
	out := make([]*globalvar.Variable, len(rows))
	for i, row := range rows {
		v := rowToVariable(row)
		out[i] = &v
	}
	return out, nil
}

func rowToVariable(row globalVariableRow) globalvar.Variable {
	return globalvar.Variable{
		ID:         row.ID,
		Name:       row.Name,
		Type:       globalvar.VarType(row.Type),
		Value:      row.Value,
		IsDisabled: row.IsDisabled,
		CreatedAt:  time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt:  time.Unix(row.UpdatedAt, 0).UTC(),
	}
}

func variableToRow(v globalvar.Variable) globalVariableRow {
	return globalVariableRow{
		ID:         v.ID,
		Name:       v.Name,
		Type:       string(v.Type),
		Value:      v.Value,
		IsDisabled: v.IsDisabled,
		CreatedAt:  v.CreatedAt.Unix(),
		UpdatedAt:  v.UpdatedAt.Unix(),
	}
}
