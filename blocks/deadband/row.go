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

package deadband

import (
	"time"

	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Deadband block configuration.
const Table = "deadband_blocks"

// Row mirrors the deadband_blocks table.
type Row struct {
	Name                string  `db:"name"`
	IsDisabled          bool    `db:"is_disabled"`
	IntervalSeconds     int64   `db:"interval_seconds"`
	InputRef            string  `db:"input_ref"`
	OutputRef           string  `db:"output_ref"`
	Mode                int     `db:"mode"`
	DeadbandAbsolute    float64 `db:"deadband_absolute"`
	DeadbandPercent     float64 `db:"deadband_percent"`
	UsePercent          bool    `db:"use_percent"`
	InputMin            float64 `db:"input_min"`
	InputMax            float64 `db:"input_max"`
	StabilityTimeMillis int64   `db:"stability_time_ms"`
	DecimalPlaces       int     `db:"decimal_places"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) Config {
	return Config{
		ID:               id,
		Name:             r.Name,
		Input:            point.ParseReference(r.InputRef),
		Output:           point.ParseReference(r.OutputRef),
		Mode:             Mode(r.Mode),
		DeadbandAbsolute: r.DeadbandAbsolute,
		DeadbandPercent:  r.DeadbandPercent,
		UsePercent:       r.UsePercent,
		InputMin:         r.InputMin,
		InputMax:         r.InputMax,
		StabilityTime:    time.Duration(r.StabilityTimeMillis) * time.Millisecond,
		DecimalPlaces:    r.DecimalPlaces,
	}
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) Row {
	return Row{
		Name:                cfg.Name,
		InputRef:            point.Format(cfg.Input),
		OutputRef:           point.Format(cfg.Output),
		Mode:                int(cfg.Mode),
		DeadbandAbsolute:    cfg.DeadbandAbsolute,
		DeadbandPercent:     cfg.DeadbandPercent,
		UsePercent:          cfg.UsePercent,
		InputMin:            cfg.InputMin,
		InputMax:            cfg.InputMax,
		StabilityTimeMillis: int64(cfg.StabilityTime / time.Millisecond),
		DecimalPlaces:       cfg.DecimalPlaces,
	}
}
