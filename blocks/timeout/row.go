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

package timeout

import (
	"time"

	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Timeout block configuration.
const Table = "timeout_blocks"

// Row mirrors the timeout_blocks table; block_id is handled separately by
// the generic repository.
type Row struct {
	Name            string `db:"name"`
	IsDisabled      bool   `db:"is_disabled"`
	IntervalSeconds int64  `db:"interval_seconds"`
	InputRef        string `db:"input_ref"`
	OutputRef       string `db:"output_ref"`
	TimeoutSeconds  int64  `db:"timeout_seconds"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) Config {
	return Config{
		ID:             id,
		Name:           r.Name,
		IsDisabled:     r.IsDisabled,
		Interval:       time.Duration(r.IntervalSeconds) * time.Second,
		Input:          parseRef(r.InputRef),
		Output:         parseRef(r.OutputRef),
		TimeoutSeconds: r.TimeoutSeconds,
	}
}

// FromConfig is the inverse of ToConfig, for writers of the config row.
func FromConfig(cfg Config) Row {
	return Row{
		Name:            cfg.Name,
		IsDisabled:      cfg.IsDisabled,
		IntervalSeconds: int64(cfg.Interval / time.Second),
		InputRef:        formatRef(cfg.Input),
		OutputRef:       formatRef(cfg.Output),
		TimeoutSeconds:  cfg.TimeoutSeconds,
	}
}

func parseRef(s string) point.Reference { return point.ParseReference(s) }
func formatRef(r point.Reference) string { return point.Format(r) }
