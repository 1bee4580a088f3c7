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
	"fmt"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

// BlockConfigRepository is the CRUD boundary shared by every block type's
// configuration table. T is a `db:"..."`-tagged struct (e.g. a
// timeout.Config-shaped row); the owning block is identified by the
// blockID argument (the table's block_id column), not by a field of T.
type BlockConfigRepository[T any] interface {
	Get(ctx context.Context, blockID string) (*T, error)
	Create(ctx context.Context, blockID string, cfg *T) error
	Update(ctx context.Context, blockID string, cfg *T) error
	Delete(ctx context.Context, blockID string) error
	List(ctx context.Context) ([]T, error)
	ListWithIDs(ctx context.Context) (map[string]T, error)
}

// SQLBlockConfigRepository is a BlockConfigRepository backed by one
// relational table, addressed by table name and keyed on a block_id column.
// Row structs carry only their own `db:"..."`-tagged columns and no
// `db:"block_id"` field (the repository binds block_id itself), matching
// the teacher's named-parameter struct scans (executor/extension/register).
type SQLBlockConfigRepository[T any] struct {
	db    *sqlx.DB
	table string
}

// NewSQLBlockConfigRepository builds a repository over the given table.
func NewSQLBlockConfigRepository[T any](db *sqlx.DB, table string) *SQLBlockConfigRepository[T] {
	return &SQLBlockConfigRepository[T]{db: db, table: table}
}

func (r *SQLBlockConfigRepository[T]) Get(ctx context.Context, blockID string) (*T, error) {
	var row T
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE block_id = ?`, selectColumns(&row), r.table))
	err := r.db.GetContext(ctx, &row, query, blockID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.TransientStore(fmt.Sprintf("get %s config", r.table), err)
	}
	return &row, nil
}

func (r *SQLBlockConfigRepository[T]) Create(ctx context.Context, blockID string, cfg *T) error {
	cols, placeholders, args := namedColumns(cfg)
	query := fmt.Sprintf(`INSERT INTO %s (block_id, %s) VALUES (:block_id, %s)`, r.table, cols, placeholders)
	args["block_id"] = blockID
	if _, err := r.db.NamedExecContext(ctx, query, args); err != nil {
		return memerr.TransientStore(fmt.Sprintf("create %s config", r.table), err)
	}
	return nil
}

func (r *SQLBlockConfigRepository[T]) Update(ctx context.Context, blockID string, cfg *T) error {
	assignments, args := namedAssignments(cfg)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE block_id = :block_id`, r.table, assignments)
	args["block_id"] = blockID
	if _, err := r.db.NamedExecContext(ctx, query, args); err != nil {
		return memerr.TransientStore(fmt.Sprintf("update %s config", r.table), err)
	}
	return nil
}

func (r *SQLBlockConfigRepository[T]) Delete(ctx context.Context, blockID string) error {
	query := r.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE block_id = ?`, r.table))
	if _, err := r.db.ExecContext(ctx, query, blockID); err != nil {
		return memerr.TransientStore(fmt.Sprintf("delete %s config", r.table), err)
	}
	return nil
}

func (r *SQLBlockConfigRepository[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	query := fmt.Sprintf(`SELECT %s FROM %s`, selectColumns(new(T)), r.table)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, memerr.TransientStore(fmt.Sprintf("list %s config", r.table), err)
	}
	return rows, nil
}

// ListWithIDs is List plus the owning block_id for each row, for callers
// (the block schedulers) that need to know which block a row belongs to.
func (r *SQLBlockConfigRepository[T]) ListWithIDs(ctx context.Context) (map[string]T, error) {
	type idRow struct {
		BlockID string `db:"block_id"`
	}
	query := fmt.Sprintf(`SELECT block_id, %s FROM %s`, selectColumns(new(T)), r.table)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, memerr.TransientStore(fmt.Sprintf("list %s config", r.table), err)
	}
	defer rows.Close()

	out := map[string]T{}
	for rows.Next() {
		var id idRow
		var cfg T
		if err := rows.Scan(scanTargets(&id, &cfg)...); err != nil {
			return nil, memerr.TransientStore(fmt.Sprintf("scan %s config", r.table), err)
		}
		out[id.BlockID] = cfg
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.TransientStore(fmt.Sprintf("list %s config", r.table), err)
	}
	return out, nil
}
