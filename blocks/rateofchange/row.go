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

package rateofchange

import "github.com/0xsoniclabs/memproc/point"

// Table is the relational-store table name for Rate-of-Change block
// configuration; SamplesTable is its sample-ring child table.
const (
	Table        = "rateofchange_blocks"
	SamplesTable = "rateofchange_samples"
)

// Row mirrors the rateofchange_blocks table.
type Row struct {
	Name            string  `db:"name"`
	IsDisabled      bool    `db:"is_disabled"`
	IntervalSeconds int64   `db:"interval_seconds"`
	InputRef        string  `db:"input_ref"`
	OutputRef       string  `db:"output_ref"`
	AlarmOutputRef  string  `db:"alarm_output_ref"`
	WindowSize      int     `db:"window_size"`
	Method          int     `db:"method"`
	Alpha           float64 `db:"alpha"`
	DecimalPlaces   int     `db:"decimal_places"`
	HighThreshold   float64 `db:"high_threshold"`
	HighHysteresis  float64 `db:"high_hysteresis"`
	LowThreshold    float64 `db:"low_threshold"`
	LowHysteresis   float64 `db:"low_hysteresis"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) Config {
	cfg := Config{
		ID:             id,
		Name:           r.Name,
		Input:          point.ParseReference(r.InputRef),
		Output:         point.ParseReference(r.OutputRef),
		WindowSize:     r.WindowSize,
		Method:         Method(r.Method),
		Alpha:          r.Alpha,
		DecimalPlaces:  r.DecimalPlaces,
		HighThreshold:  r.HighThreshold,
		HighHysteresis: r.HighHysteresis,
		LowThreshold:   r.LowThreshold,
		LowHysteresis:  r.LowHysteresis,
	}
	if r.AlarmOutputRef != "" {
		ref := point.ParseReference(r.AlarmOutputRef)
		cfg.AlarmOutput = &ref
	}
	return cfg
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) Row {
	row := Row{
		Name:           cfg.Name,
		InputRef:       point.Format(cfg.Input),
		OutputRef:      point.Format(cfg.Output),
		WindowSize:     cfg.WindowSize,
		Method:         int(cfg.Method),
		Alpha:          cfg.Alpha,
		DecimalPlaces:  cfg.DecimalPlaces,
		HighThreshold:  cfg.HighThreshold,
		HighHysteresis: cfg.HighHysteresis,
		LowThreshold:   cfg.LowThreshold,
		LowHysteresis:  cfg.LowHysteresis,
	}
	if cfg.AlarmOutput != nil {
		row.AlarmOutputRef = point.Format(*cfg.AlarmOutput)
	}
	return row
}
