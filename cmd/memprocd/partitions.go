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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/jmoiron/sqlx"
)

// bootstrapHistoryPartitions idempotently creates every point_history_*
// month partition for the current and next calendar year, matching the
// Value Store Gateway's historyTableFor naming (point_history_2006_01), so
// a write never lands on a table that does not exist yet.
func bootstrapHistoryPartitions(ctx context.Context, db *sqlx.DB, now time.Time) error {
	start := time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.UTC().Year()+1, time.December, 31, 0, 0, 0, 0, time.UTC)

	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		table := m.Format("point_history_2006_01")
		ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	point_id TEXT NOT NULL,
	value TEXT NOT NULL,
	time INTEGER NOT NULL
);`, table)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return memerr.TransientStore("bootstrap history partition "+table, err)
		}
		indexDDL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_point_time ON %s (point_id, time);`, table, table)
		if _, err := db.ExecContext(ctx, indexDDL); err != nil {
			return memerr.TransientStore("index history partition "+table, err)
		}
	}
	return nil
}
