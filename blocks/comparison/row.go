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

package comparison

import (
	"encoding/json"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Comparison block configuration.
const Table = "comparison_blocks"

// Row mirrors the comparison_blocks table. Groups is stored as a JSON
// array, following sqlx's usual treatment of a block's nested/variable
// structure as a single text column rather than a second child table
// (unlike the windowed blocks' sample rings, a group list has no
// independent lifecycle worth its own table).
type Row struct {
	Name            string `db:"name"`
	IsDisabled      bool   `db:"is_disabled"`
	IntervalSeconds int64  `db:"interval_seconds"`
	GroupsJSON      string `db:"groups_json"`
	OuterOp         int    `db:"outer_op"`
	Invert          bool   `db:"invert"`
	OutputRef       string `db:"output_ref"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var groups []GroupConfig
	if r.GroupsJSON != "" {
		if err := json.Unmarshal([]byte(r.GroupsJSON), &groups); err != nil {
			return Config{}, memerr.Configuration("comparison %s: malformed groups_json: %v", id, err)
		}
	}
	return Config{
		ID:      id,
		Name:    r.Name,
		Groups:  groups,
		OuterOp: OuterOp(r.OuterOp),
		Invert:  r.Invert,
		Output:  parseRef(r.OutputRef),
	}, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	buf, err := json.Marshal(cfg.Groups)
	if err != nil {
		return Row{}, memerr.Configuration("comparison %s: cannot marshal groups: %v", cfg.ID, err)
	}
	return Row{
		Name:       cfg.Name,
		GroupsJSON: string(buf),
		OuterOp:    int(cfg.OuterOp),
		Invert:     cfg.Invert,
		OutputRef:  formatRef(cfg.Output),
	}, nil
}

// IntervalDuration is a placeholder accessor; Comparison's cadence lives in the
// row (interval_seconds) rather than the Config, since the block's own
// evaluation never needs it.
func (r Row) IntervalDuration() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

func parseRef(s string) point.Reference  { return point.ParseReference(s) }
func formatRef(r point.Reference) string { return point.Format(r) }
