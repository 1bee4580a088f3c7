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

package writeaction

import (
	"database/sql"
	"time"

	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Write-Action block
// configuration.
const Table = "writeaction_blocks"

// Row mirrors the writeaction_blocks table.
type Row struct {
	Name                  string        `db:"name"`
	IsDisabled            bool          `db:"is_disabled"`
	IntervalSeconds       int64         `db:"interval_seconds"`
	OutputRef             string        `db:"output_ref"`
	Static                bool          `db:"static"`
	StaticValue           string        `db:"static_value"`
	SourceItemRef         string        `db:"source_item_ref"`
	MaxExecutionCount     sql.NullInt64 `db:"max_execution_count"`
	DurationSeconds       sql.NullInt64 `db:"duration_seconds"`
	PersistedExecutionCnt int           `db:"execution_count"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) Config {
	cfg := Config{
		ID:          id,
		Name:        r.Name,
		Output:      point.ParseReference(r.OutputRef),
		Static:      r.Static,
		StaticValue: r.StaticValue,
		SourceItem:  point.ParseReference(r.SourceItemRef),
	}
	if r.MaxExecutionCount.Valid {
		n := int(r.MaxExecutionCount.Int64)
		cfg.MaxExecutionCount = &n
	}
	if r.DurationSeconds.Valid {
		d := time.Duration(r.DurationSeconds.Int64) * time.Second
		cfg.Duration = &d
	}
	return cfg
}

// FromConfig is the inverse of ToConfig. executionCount is persisted
// separately from the static configuration since it mutates every tick
// the block actually writes.
func FromConfig(cfg Config, executionCount int) Row {
	row := Row{
		Name:                  cfg.Name,
		OutputRef:             point.Format(cfg.Output),
		Static:                cfg.Static,
		StaticValue:           cfg.StaticValue,
		SourceItemRef:         point.Format(cfg.SourceItem),
		PersistedExecutionCnt: executionCount,
	}
	if cfg.MaxExecutionCount != nil {
		row.MaxExecutionCount = sql.NullInt64{Int64: int64(*cfg.MaxExecutionCount), Valid: true}
	}
	if cfg.Duration != nil {
		row.DurationSeconds = sql.NullInt64{Int64: int64(*cfg.Duration / time.Second), Valid: true}
	}
	return row
}
