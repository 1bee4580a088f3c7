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

// Package deadband implements the Deadband block: suppress small analog
// changes, or require a digital state change to hold stable before
// committing it to the output.
package deadband

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
)

// Mode selects analog deadbanding or digital stability filtering.
type Mode int

const (
	Analog Mode = iota
	Digital
)

// Writer is the output side of a Deadband block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Deadband block's configuration row.
type Config struct {
	ID               string
	Name             string
	Input            point.Reference
	Output           point.Reference
	Mode             Mode
	DeadbandAbsolute float64
	DeadbandPercent  float64
	UsePercent       bool
	InputMin         float64
	InputMax         float64
	StabilityTime    time.Duration
	DecimalPlaces    int
}

// Block is one configured Deadband processor instance.
type Block struct {
	Config

	lastOutput *float64

	committedDigital *bool
	pendingDigital   *bool
	lastChangeTime   time.Time
}

// New builds a Block from its configuration.
func New(cfg Config) *Block { return &Block{Config: cfg} }

// Tick applies analog deadbanding or digital stability filtering,
// depending on Mode.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	item, ok, err := resolver.ResolveOne(ctx, b.Input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if b.Mode == Digital {
		cur, err := blockio.ParseBool(item.Value)
		if err != nil {
			return nil
		}
		return b.tickDigital(ctx, now, cur, writer)
	}

	raw, err := blockio.ParseFloat(item.Value)
	if err != nil {
		return nil
	}
	return b.tickAnalog(ctx, raw, writer)
}

func (b *Block) tickAnalog(ctx context.Context, raw float64, writer Writer) error {
	if b.lastOutput == nil {
		b.lastOutput = &raw
		return writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, raw))
	}

	band := b.DeadbandAbsolute
	if b.UsePercent {
		band = b.DeadbandPercent / 100 * (b.InputMax - b.InputMin)
	}

	if math.Abs(raw-*b.lastOutput) < band {
		return nil
	}
	b.lastOutput = &raw
	return writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, raw))
}

func (b *Block) tickDigital(ctx context.Context, now time.Time, cur bool, writer Writer) error {
	if b.committedDigital == nil {
		b.committedDigital = &cur
		return writer.WriteOutput(ctx, b.Output, boolString(cur))
	}

	if cur == *b.committedDigital {
		b.pendingDigital = nil
		return nil
	}

	if b.pendingDigital == nil || *b.pendingDigital != cur {
		b.pendingDigital = &cur
		b.lastChangeTime = now
		return nil
	}

	if now.Sub(b.lastChangeTime) >= b.StabilityTime {
		b.committedDigital = &cur
		b.pendingDigital = nil
		return writer.WriteOutput(ctx, b.Output, boolString(cur))
	}
	return nil
}

func boolString(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
