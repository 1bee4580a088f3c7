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

package pidtune

import "github.com/0xsoniclabs/memproc/point"

// Table is the relational-store table name for PID auto-tune sessions.
const Table = "pidtune_sessions"

// Row mirrors the pidtune_sessions table. The transient oscillation state
// (Session) never lands here; it lives only in the Value Store's
// PIDTuningState side channel per spec.md §3.
type Row struct {
	Name                 string  `db:"name"`
	IsDisabled           bool    `db:"is_disabled"`
	IntervalSeconds      int64   `db:"interval_seconds"`
	Setpoint             float64 `db:"setpoint"`
	OutputMin            float64 `db:"output_min"`
	OutputMax            float64 `db:"output_max"`
	RelayAmplitudePct    float64 `db:"relay_amplitude_pct"`
	Hysteresis           float64 `db:"hysteresis"`
	MinCycles            int     `db:"min_cycles"`
	MaxCycles            int     `db:"max_cycles"`
	TimeoutSeconds       int64   `db:"timeout_seconds"`
	SafetyAmplitudeLimit float64 `db:"safety_amplitude_limit"`
	PVRef                string  `db:"pv_ref"`
	RelayOutputRef       string  `db:"relay_output_ref"`
	Status               int     `db:"status"`
}

// ToConfig combines a relational row with its session id into a Config.
// IsParentActive is left for the caller to bind (it needs a live registry
// of sibling sessions, not just this row).
func (r Row) ToConfig(id string, isParentActive ParentActive) Config {
	return Config{
		ID:                   id,
		Setpoint:             r.Setpoint,
		OutputMin:            r.OutputMin,
		OutputMax:            r.OutputMax,
		RelayAmplitudePct:    r.RelayAmplitudePct,
		Hysteresis:           r.Hysteresis,
		MinCycles:            r.MinCycles,
		MaxCycles:            r.MaxCycles,
		TimeoutSeconds:       r.TimeoutSeconds,
		SafetyAmplitudeLimit: r.SafetyAmplitudeLimit,
		PV:                   point.ParseReference(r.PVRef),
		RelayOutput:          point.ParseReference(r.RelayOutputRef),
		IsParentActive:       isParentActive,
	}
}

// FromConfig is the inverse of ToConfig; status is persisted separately
// since it advances independently of the static configuration.
func FromConfig(cfg Config, status Status) Row {
	return Row{
		Setpoint:             cfg.Setpoint,
		OutputMin:            cfg.OutputMin,
		OutputMax:            cfg.OutputMax,
		RelayAmplitudePct:    cfg.RelayAmplitudePct,
		Hysteresis:           cfg.Hysteresis,
		MinCycles:            cfg.MinCycles,
		MaxCycles:            cfg.MaxCycles,
		TimeoutSeconds:       cfg.TimeoutSeconds,
		SafetyAmplitudeLimit: cfg.SafetyAmplitudeLimit,
		PVRef:                point.Format(cfg.PV),
		RelayOutputRef:       point.Format(cfg.RelayOutput),
		Status:               int(status),
	}
}
