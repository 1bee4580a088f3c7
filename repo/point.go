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

// Package repo implements the relational-store repositories backing
// Points, Global Variables' referencing tables, and the generic
// per-block-type configuration tables, in the style of the teacher's
// sqlx-backed access patterns (executor/extension/register).
package repo

import (
	"context"
	"database/sql"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

// pointRow mirrors the points table. Calibration columns are nullable:
// a Point with no calibration configured stores NULL in all four.
type pointRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Kind       string          `db:"kind"`
	RawLow     sql.NullFloat64 `db:"raw_low"`
	RawHigh    sql.NullFloat64 `db:"raw_high"`
	ScaledLow  sql.NullFloat64 `db:"scaled_low"`
	ScaledHigh sql.NullFloat64 `db:"scaled_high"`
}

// PointRepository is the CRUD boundary over the points table.
type PointRepository interface {
	Get(ctx context.Context, id string) (*point.Point, error)
	Create(ctx context.Context, p *point.Point) error
	Update(ctx context.Context, p *point.Point) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]point.Point, error)
}

// SQLPointRepository is a PointRepository backed by the relational store.
type SQLPointRepository struct {
	db *sqlx.DB
}

// NewSQLPointRepository builds a SQLPointRepository.
func NewSQLPointRepository(db *sqlx.DB) *SQLPointRepository {
	return &SQLPointRepository{db: db}
}

func (r *SQLPointRepository) Get(ctx context.Context, id string) (*point.Point, error) {
	var row pointRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT id, name, kind, raw_low, raw_high, scaled_low, scaled_high FROM points WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, memerr.TransientStore("get point", err)
	}
	p := rowToPoint(row)
	return &p, nil
}

func (r *SQLPointRepository) Create(ctx context.Context, p *point.Point) error {
	if p.Name == "" {
		return memerr.Configuration("point name is required")
	}
	row := pointToRow(*p)
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO points (id, name, kind, raw_low, raw_high, scaled_low, scaled_high)
		 VALUES (:id, :name, :kind, :raw_low, :raw_high, :scaled_low, :scaled_high)`, row)
	if err != nil {
		return memerr.TransientStore("create point", err)
	}
	return nil
}

func (r *SQLPointRepository) Update(ctx context.Context, p *point.Point) error {
	row := pointToRow(*p)
	_, err := r.db.NamedExecContext(ctx,
		`UPDATE points SET name = :name, kind = :kind, raw_low = :raw_low, raw_high = :raw_high,
		 scaled_low = :scaled_low, scaled_high = :scaled_high WHERE id = :id`, row)
	if err != nil {
		return memerr.TransientStore("update point", err)
	}
	return nil
}

func (r *SQLPointRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM points WHERE id = ?`), id)
	if err != nil {
		return memerr.TransientStore("delete point", err)
	}
	return nil
}

func (r *SQLPointRepository) List(ctx context.Context) ([]point.Point, error) {
	var rows []pointRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, kind, raw_low, raw_high, scaled_low, scaled_high FROM points`)
	if err != nil {
		return nil, memerr.TransientStore("list points", err)
	}
	out := make([]point.Point, len(rows))
	for i, row := range rows {
		out[i] = rowToPoint(row)
	}
	return out, nil
}

func rowToPoint(row pointRow) point.Point {
	p := point.Point{
		ID:   row.ID,
		Name: row.Name,
		Kind: point.Kind(row.Kind),
	}
	if row.RawLow.Valid && row.RawHigh.Valid && row.ScaledLow.Valid && row.ScaledHigh.Valid {
		p.Calibration = &point.Calibration{
			RawLow:     row.RawLow.Float64,
			RawHigh:    row.RawHigh.Float64,
			ScaledLow:  row.ScaledLow.Float64,
			ScaledHigh: row.ScaledHigh.Float64,
		}
	}
	return p
}

func pointToRow(p point.Point) pointRow {
	row := pointRow{
		ID:   p.ID,
		Name: p.Name,
		Kind: string(p.Kind),
	}
	if p.Calibration != nil {
		row.RawLow = sql.NullFloat64{Float64: p.Calibration.RawLow, Valid: true}
		row.RawHigh = sql.NullFloat64{Float64: p.Calibration.RawHigh, Valid: true}
		row.ScaledLow = sql.NullFloat64{Float64: p.Calibration.ScaledLow, Valid: true}
		row.ScaledHigh = sql.NullFloat64{Float64: p.Calibration.ScaledHigh, Valid: true}
	}
	return row
}
