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

package ifblock

import (
	"encoding/json"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for If block configuration.
const Table = "if_blocks"

// Row mirrors the if_blocks table. Branches is stored as a JSON array,
// preserving the ordered, top-down evaluation sequence.
type Row struct {
	Name            string `db:"name"`
	IsDisabled      bool   `db:"is_disabled"`
	IntervalSeconds int64  `db:"interval_seconds"`
	BranchesJSON    string `db:"branches_json"`
	DefaultValue    string `db:"default_value"`
	OutputRef       string `db:"output_ref"`
}

type branchRow struct {
	Input       string  `json:"input"`
	CompareType int     `json:"compare_type"`
	Threshold   float64 `json:"threshold"`
	Hysteresis  float64 `json:"hysteresis"`
	Value       string  `json:"value"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var rows []branchRow
	if r.BranchesJSON != "" {
		if err := json.Unmarshal([]byte(r.BranchesJSON), &rows); err != nil {
			return Config{}, memerr.Configuration("if-block %s: malformed branches_json: %v", id, err)
		}
	}
	branches := make([]BranchConfig, len(rows))
	for i, b := range rows {
		branches[i] = BranchConfig{
			Input:       point.ParseEmbedded(b.Input),
			CompareType: CompareType(b.CompareType),
			Threshold:   b.Threshold,
			Hysteresis:  b.Hysteresis,
			Value:       b.Value,
		}
	}
	return Config{
		ID:           id,
		Name:         r.Name,
		Branches:     branches,
		DefaultValue: r.DefaultValue,
		Output:       point.ParseReference(r.OutputRef),
	}, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	rows := make([]branchRow, len(cfg.Branches))
	for i, b := range cfg.Branches {
		rows[i] = branchRow{
			Input:       point.FormatEmbedded(b.Input),
			CompareType: int(b.CompareType),
			Threshold:   b.Threshold,
			Hysteresis:  b.Hysteresis,
			Value:       b.Value,
		}
	}
	buf, err := json.Marshal(rows)
	if err != nil {
		return Row{}, memerr.Configuration("if-block %s: cannot marshal branches: %v", cfg.ID, err)
	}
	return Row{
		Name:         cfg.Name,
		BranchesJSON: string(buf),
		DefaultValue: cfg.DefaultValue,
		OutputRef:    point.Format(cfg.Output),
	}, nil
}
