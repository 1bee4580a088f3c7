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

// Package window implements the rolling/tumbling sample windows shared by
// the windowed blocks (RateOfChange, Statistical), persisted in a
// relational-store child table keyed by parent block id, with background
// pruning that enforces the ceil(window_size * 1.2) bound.
package window

import (
	"context"
	"math"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/jmoiron/sqlx"
)

// Sample is one (timestamp, value) row of a block's sample child table.
type Sample struct {
	Timestamp int64
	Value     float64
}

// Store persists samples for windowed blocks in a single child table per
// block type (e.g. rateofchange_samples, statistical_samples), keyed by
// parent block id with cascade delete.
type Store struct {
	db    *sqlx.DB
	table string
}

// New builds a Store over the given child table name.
func New(db *sqlx.DB, table string) *Store {
	return &Store{db: db, table: table}
}

// Append inserts one sample for blockID.
func (s *Store) Append(ctx context.Context, blockID string, sample Sample) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO `+s.table+` (block_id, timestamp, value) VALUES (?, ?, ?)`),
		blockID, sample.Timestamp, sample.Value)
	if err != nil {
		return memerr.TransientStore("append sample", err)
	}
	return nil
}

// Recent returns the most recent limit samples for blockID, oldest first.
func (s *Store) Recent(ctx context.Context, blockID string, limit int) ([]Sample, error) {
	var rows []struct {
		Timestamp int64   `db:"timestamp"`
		Value     float64 `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT timestamp, value FROM `+s.table+` WHERE block_id = ? ORDER BY timestamp DESC LIMIT ?`),
		blockID, limit)
	if err != nil {
		return nil, memerr.TransientStore("select recent samples", err)
	}
	out := make([]Sample, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = Sample{Timestamp: r.Timestamp, Value: r.Value}
	}
	return out, nil
}

// Clear deletes every sample for blockID, used on tumbling-window
// completion and on block configuration change.
func (s *Store) Clear(ctx context.Context, blockID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM `+s.table+` WHERE block_id = ?`), blockID)
	if err != nil {
		return memerr.TransientStore("clear samples", err)
	}
	return nil
}

// PruneBound returns ceil(windowSize * 1.2), the maximum number of samples
// a block may retain at any observable moment (invariant 4).
func PruneBound(windowSize int) int {
	return int(math.Ceil(float64(windowSize) * 1.2))
}

// PruneAllOlderThanBound trims every block's samples in this table down to
// its own bound, keeping the most recent rows. windowSizeOf supplies each
// block's configured window size. Intended to run on an hourly background
// tick (spec.md §4.14).
func (s *Store) PruneAllOlderThanBound(ctx context.Context, blockIDs []string, windowSizeOf func(blockID string) int) error {
	for _, id := range blockIDs {
		bound := PruneBound(windowSizeOf(id))
		if err := s.pruneOne(ctx, id, bound); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) pruneOne(ctx context.Context, blockID string, bound int) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM `+s.table+`
		WHERE block_id = ? AND timestamp NOT IN (
			SELECT timestamp FROM `+s.table+`
			WHERE block_id = ?
			ORDER BY timestamp DESC
			LIMIT ?
		)`), blockID, blockID, bound)
	if err != nil {
		return memerr.TransientStore("prune samples", err)
	}
	return nil
}

// TickerInterval is the background pruning cadence (spec.md §4.14: hourly).
const TickerInterval = time.Hour
