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

// Package point defines the signal data model (Point, its kinds and the
// Raw/Final value-store items) and the Source Reference Resolver that turns
// a stored reference string into a typed, kind-tagged variant.
package point

import "time"

// Kind classifies a Point's direction and domain.
type Kind string

const (
	AnalogInput   Kind = "AnalogInput"
	AnalogOutput  Kind = "AnalogOutput"
	DigitalInput  Kind = "DigitalInput"
	DigitalOutput Kind = "DigitalOutput"
)

// IsAnalog reports whether the kind carries a continuous value.
func (k Kind) IsAnalog() bool {
	return k == AnalogInput || k == AnalogOutput
}

// IsDigital reports whether the kind carries a boolean value.
func (k Kind) IsDigital() bool {
	return k == DigitalInput || k == DigitalOutput
}

// Point is a named signal with identity, kind, optional calibration and an
// optional bounded-duration write override (the override itself is modeled
// by the value store's write_or_add duration parameter, not here).
type Point struct {
	ID          string
	Name        string
	Kind        Kind
	Calibration *Calibration
}

// Calibration maps a raw engineering-unit reading through a two-point
// linear scale before it is considered the Point's value.
type Calibration struct {
	RawLow, RawHigh     float64
	ScaledLow, ScaledHigh float64
}

// Apply linearly remaps v from the raw calibration range into scaled units.
// A degenerate raw range (RawHigh == RawLow) returns v unchanged.
func (c *Calibration) Apply(v float64) float64 {
	if c == nil || c.RawHigh == c.RawLow {
		return v
	}
	t := (v - c.RawLow) / (c.RawHigh - c.RawLow)
	return c.ScaledLow + t*(c.ScaledHigh-c.ScaledLow)
}

// Item is the shape stored in the fast KV store for a point's Raw or Final
// view: `{value: string, time: unix-seconds}`.
type Item struct {
	Value string
	Time  int64
}

// At reports the item's timestamp as a time.Time in UTC.
func (i Item) At() time.Time {
	return time.Unix(i.Time, 0).UTC()
}

// Age returns now - i.Time in seconds, clamped to zero for future timestamps.
func (i Item) Age(now time.Time) int64 {
	d := now.Unix() - i.Time
	if d < 0 {
		return 0
	}
	return d
}
