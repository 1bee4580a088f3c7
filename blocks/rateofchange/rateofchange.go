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

// Package rateofchange implements the Rate-of-Change block: d(input)/dt
// over a configurable window, with optional one-pole smoothing and a
// latching high/low alarm.
package rateofchange

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/0xsoniclabs/memproc/window"
)

// Method selects the rate-of-change estimator.
type Method int

const (
	SimpleTwoPoint Method = iota
	MovingAverageOfDifferences
	LinearRegressionSlope
)

// SampleStore is the windowed persistence a Rate-of-Change block needs,
// satisfied by *window.Store.
type SampleStore interface {
	Append(ctx context.Context, blockID string, sample window.Sample) error
	Recent(ctx context.Context, blockID string, limit int) ([]window.Sample, error)
	Clear(ctx context.Context, blockID string) error
}

// Writer is the output side of a Rate-of-Change block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Rate-of-Change block's configuration row.
type Config struct {
	ID              string
	Name            string
	Input           point.Reference
	Output          point.Reference
	AlarmOutput     *point.Reference
	WindowSize      int
	Method          Method
	Alpha           float64 // one-pole smoothing, 0 disables
	DecimalPlaces   int
	HighThreshold   float64
	HighHysteresis  float64
	LowThreshold    float64
	LowHysteresis   float64
}

// Block is one configured Rate-of-Change processor instance.
type Block struct {
	Config
	store SampleStore

	smoothed     float64
	hasSmoothed  bool
	alarmLatched bool
}

// New builds a Block from its configuration and sample store.
func New(cfg Config, store SampleStore) *Block {
	return &Block{Config: cfg, store: store}
}

// OnConfigChanged clears this block's persisted samples, per spec.md
// §4.12 ("on configuration change, samples are cleared").
func (b *Block) OnConfigChanged(ctx context.Context) error {
	b.hasSmoothed = false
	b.alarmLatched = false
	return b.store.Clear(ctx, b.ID)
}

// Tick appends the current input sample, estimates the rate over the
// configured window, applies smoothing, writes the rate, and evaluates
// the latching alarm if configured.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	item, ok, err := resolver.ResolveOne(ctx, b.Input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	raw, err := blockio.ParseFloat(item.Value)
	if err != nil {
		return nil
	}

	if err := b.store.Append(ctx, b.ID, window.Sample{Timestamp: now.Unix(), Value: raw}); err != nil {
		return err
	}

	samples, err := b.store.Recent(ctx, b.ID, b.WindowSize)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return nil
	}

	rate, ok := estimate(samples, b.Method)
	if !ok {
		return nil
	}

	if b.Alpha > 0 {
		if !b.hasSmoothed {
			b.smoothed = rate
			b.hasSmoothed = true
		} else {
			b.smoothed = b.Alpha*rate + (1-b.Alpha)*b.smoothed
		}
		rate = b.smoothed
	}

	if err := writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, rate)); err != nil {
		return err
	}

	return b.evaluateAlarm(ctx, rate, writer)
}

func (b *Block) evaluateAlarm(ctx context.Context, rate float64, writer Writer) error {
	if b.AlarmOutput == nil {
		return nil
	}

	highOn := b.HighThreshold + b.HighHysteresis*b.HighThreshold
	highOff := b.HighThreshold - b.HighHysteresis*b.HighThreshold
	lowOn := b.LowThreshold - b.LowHysteresis*math.Abs(b.LowThreshold)
	lowOff := b.LowThreshold + b.LowHysteresis*math.Abs(b.LowThreshold)

	if b.alarmLatched {
		if rate < highOff && rate > lowOff {
			b.alarmLatched = false
			return writer.WriteOutput(ctx, *b.AlarmOutput, "0")
		}
		return nil
	}

	if rate > highOn || rate < lowOn {
		b.alarmLatched = true
		return writer.WriteOutput(ctx, *b.AlarmOutput, "1")
	}
	return nil
}

// estimate computes the rate of change over samples using the selected
// method. ok is false when there is not enough data for the method.
func estimate(samples []window.Sample, method Method) (float64, bool) {
	switch method {
	case SimpleTwoPoint:
		first, last := samples[0], samples[len(samples)-1]
		dt := float64(last.Timestamp - first.Timestamp)
		if dt == 0 {
			return 0, false
		}
		return (last.Value - first.Value) / dt, true
	case MovingAverageOfDifferences:
		if len(samples) < 2 {
			return 0, false
		}
		var sum float64
		count := 0
		for i := 1; i < len(samples); i++ {
			dt := float64(samples[i].Timestamp - samples[i-1].Timestamp)
			if dt == 0 {
				continue
			}
			sum += (samples[i].Value - samples[i-1].Value) / dt
			count++
		}
		if count == 0 {
			return 0, false
		}
		return sum / float64(count), true
	case LinearRegressionSlope:
		if len(samples) < 5 {
			return 0, false
		}
		return linearSlope(samples), true
	default:
		return 0, false
	}
}

// linearSlope fits y = a + b*x by ordinary least squares over (t, value)
// pairs, t measured relative to the first sample to keep magnitudes
// reasonable.
func linearSlope(samples []window.Sample) float64 {
	t0 := samples[0].Timestamp
	n := float64(len(samples))
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := float64(s.Timestamp - t0)
		sumX += x
		sumY += s.Value
		sumXY += x * s.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
