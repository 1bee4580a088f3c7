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

package minmax

import (
	"encoding/json"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Min/Max block configuration.
const Table = "minmax_blocks"

// Row mirrors the minmax_blocks table.
type Row struct {
	Name              string `db:"name"`
	IsDisabled        bool   `db:"is_disabled"`
	IntervalSeconds   int64  `db:"interval_seconds"`
	InputsJSON        string `db:"inputs_json"`
	SelectMode        int    `db:"select_mode"`
	Failover          int    `db:"failover"`
	OutputRef         string `db:"output_ref"`
	IndexOutputRef     string `db:"index_output_ref"`
	HoldDurationMillis int64  `db:"hold_duration_ms"`
	DecimalPlaces      int    `db:"decimal_places"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var refStrs []string
	if r.InputsJSON != "" {
		if err := json.Unmarshal([]byte(r.InputsJSON), &refStrs); err != nil {
			return Config{}, memerr.Configuration("minmax %s: malformed inputs_json: %v", id, err)
		}
	}
	inputs := make([]point.Reference, len(refStrs))
	for i, s := range refStrs {
		inputs[i] = point.ParseEmbedded(s)
	}
	cfg := Config{
		ID:            id,
		Name:          r.Name,
		Inputs:        inputs,
		SelectMode:    SelectMode(r.SelectMode),
		Failover:      FailoverMode(r.Failover),
		Output:        point.ParseReference(r.OutputRef),
		HoldDuration:  time.Duration(r.HoldDurationMillis) * time.Millisecond,
		DecimalPlaces: r.DecimalPlaces,
	}
	if r.IndexOutputRef != "" {
		ref := point.ParseReference(r.IndexOutputRef)
		cfg.IndexOutput = &ref
	}
	return cfg, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	refStrs := make([]string, len(cfg.Inputs))
	for i, ref := range cfg.Inputs {
		refStrs[i] = point.FormatEmbedded(ref)
	}
	buf, err := json.Marshal(refStrs)
	if err != nil {
		return Row{}, memerr.Configuration("minmax %s: cannot marshal inputs: %v", cfg.ID, err)
	}
	row := Row{
		Name:               cfg.Name,
		InputsJSON:         string(buf),
		SelectMode:         int(cfg.SelectMode),
		Failover:           int(cfg.Failover),
		OutputRef:          point.Format(cfg.Output),
		HoldDurationMillis: int64(cfg.HoldDuration / time.Millisecond),
		DecimalPlaces:      cfg.DecimalPlaces,
	}
	if cfg.IndexOutput != nil {
		row.IndexOutputRef = point.Format(*cfg.IndexOutput)
	}
	return row, nil
}
