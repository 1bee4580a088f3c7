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

package totalizer

import "github.com/0xsoniclabs/memproc/point"

// Table is the relational-store table name for Totalizer block configuration.
const Table = "totalizer_blocks"

// Row mirrors the totalizer_blocks table.
type Row struct {
	Name                  string  `db:"name"`
	IsDisabled            bool    `db:"is_disabled"`
	InputRef              string  `db:"input_ref"`
	OutputRef             string  `db:"output_ref"`
	Mode                  int     `db:"mode"`
	IntervalSeconds       float64 `db:"interval_seconds"`
	DecimalPlaces         int     `db:"decimal_places"`
	ResetOnOverflow       bool    `db:"reset_on_overflow"`
	OverflowThreshold     float64 `db:"overflow_threshold"`
	ScheduledResetEnabled bool    `db:"scheduled_reset_enabled"`
	ScheduleCron          string  `db:"schedule_cron"`
	ManualResetEnabled    bool    `db:"manual_reset_enabled"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) Config {
	return Config{
		ID:                    id,
		Name:                  r.Name,
		Input:                 point.ParseReference(r.InputRef),
		Output:                point.ParseReference(r.OutputRef),
		Mode:                  Mode(r.Mode),
		IntervalSeconds:       r.IntervalSeconds,
		DecimalPlaces:         r.DecimalPlaces,
		ResetOnOverflow:       r.ResetOnOverflow,
		OverflowThreshold:     r.OverflowThreshold,
		ScheduledResetEnabled: r.ScheduledResetEnabled,
		ScheduleCron:          r.ScheduleCron,
		ManualResetEnabled:    r.ManualResetEnabled,
	}
}
