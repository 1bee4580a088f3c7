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

// Package totalizer implements the Totalizer block: rate integration or
// event counting with three independent reset policies.
package totalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/cronsvc"
	"github.com/0xsoniclabs/memproc/point"
)

// Mode selects the accumulation strategy.
type Mode int

const (
	RateIntegration Mode = iota
	EventCountRising
	EventCountFalling
	EventCountBoth
)

// Writer is the output side of a Totalizer block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Totalizer block's configuration row.
type Config struct {
	ID                    string
	Name                  string
	Input                 point.Reference
	Output                point.Reference
	Mode                  Mode
	IntervalSeconds       float64
	DecimalPlaces         int
	ResetOnOverflow       bool
	OverflowThreshold     float64
	ScheduledResetEnabled bool
	ScheduleCron          string
	ManualResetEnabled    bool
}

// Block is one configured Totalizer processor instance. All fields below
// Config are loop-carried accumulation state.
type Block struct {
	Config

	acc         float64
	hasBaseline bool
	prevValue   float64
	prevBool    bool
	lastFired   time.Time
}

// New builds a Block from its configuration. lastFired is seeded to the
// current time so the first Tick's DueSince check measures against process
// start rather than the zero time, which would otherwise look like every
// scheduled reset is overdue and fire a spurious reset on every restart.
func New(cfg Config) *Block { return &Block{Config: cfg, lastFired: time.Now().UTC()} }

// Tick applies a scheduled reset if due, otherwise accumulates one sample
// and writes the rounded total.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	if b.ScheduledResetEnabled {
		due, err := cronsvc.DueSince(b.ScheduleCron, b.lastFired, now)
		if err != nil {
			return err
		}
		if due {
			b.lastFired = now
			b.reset(false)
			return writer.WriteOutput(ctx, b.Output, formatAcc(0, b.DecimalPlaces))
		}
	}

	item, ok, err := resolver.ResolveOne(ctx, b.Input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	switch b.Mode {
	case RateIntegration:
		raw, err := blockio.ParseFloat(item.Value)
		if err != nil {
			return nil
		}
		if !b.hasBaseline {
			b.prevValue = raw
			b.hasBaseline = true
		} else {
			b.acc += (b.prevValue + raw) / 2 * b.IntervalSeconds
			b.prevValue = raw
		}
	default:
		cur, err := blockio.ParseBool(item.Value)
		if err != nil {
			return nil
		}
		if !b.hasBaseline {
			b.prevBool = cur
			b.hasBaseline = true
		} else {
			if b.transitioned(b.prevBool, cur) {
				b.acc++
			}
			b.prevBool = cur
		}
	}

	if b.ResetOnOverflow && b.acc >= b.OverflowThreshold {
		b.reset(false)
	}

	return writer.WriteOutput(ctx, b.Output, formatAcc(b.acc, b.DecimalPlaces))
}

func (b *Block) transitioned(prev, cur bool) bool {
	switch b.Mode {
	case EventCountRising:
		return !prev && cur
	case EventCountFalling:
		return prev && !cur
	case EventCountBoth:
		return prev != cur
	default:
		return false
	}
}

// ManualReset zeroes the accumulator on operator request. It always
// writes "0" regardless of preserve, matching the spec's distinction
// between preserving the underlying stored value and the output write.
func (b *Block) ManualReset(ctx context.Context, writer Writer, preserve bool) error {
	if !b.ManualResetEnabled {
		return nil
	}
	b.reset(preserve)
	return writer.WriteOutput(ctx, b.Output, formatAcc(0, b.DecimalPlaces))
}

func (b *Block) reset(preserve bool) {
	if !preserve {
		b.acc = 0
	}
	b.hasBaseline = false
}

// Acc returns the current accumulator value, for tests and persistence.
func (b *Block) Acc() float64 { return b.acc }

func formatAcc(v float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, v)
}
