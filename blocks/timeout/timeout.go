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

// Package timeout implements the Timeout block: detect input staleness by
// comparing now - lastUpdateTime against a configured threshold. Works for
// Points (Final) and Global Variables; no hysteresis.
package timeout

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
)

// Writer is the output side of a Timeout block, satisfied by
// *blockio.OutputWriter.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Timeout block's configuration row.
type Config struct {
	ID             string
	Name           string
	IsDisabled     bool
	Interval       time.Duration
	Input          point.Reference
	Output         point.Reference
	TimeoutSeconds int64
}

// Block is one configured Timeout processor instance. lastWritten is
// loop-carried in-process state; it is not persisted (a restart simply
// re-emits the current predicate once).
type Block struct {
	Config
	lastWritten *string
}

// New builds a Block from its configuration.
func New(cfg Config) *Block { return &Block{Config: cfg} }

// Tick reads the input's current age and writes "1" (fault) or "0"
// (healthy). A missing input is a ResolveError: the tick is skipped with
// no state change.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	item, ok, err := resolver.ResolveOne(ctx, b.Input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	age := item.Age(now)
	output := "0"
	if age > b.TimeoutSeconds {
		output = "1"
	}

	if b.lastWritten != nil && *b.lastWritten == output {
		return nil
	}
	if err := writer.WriteOutput(ctx, b.Output, output); err != nil {
		return err
	}
	b.lastWritten = &output
	return nil
}
