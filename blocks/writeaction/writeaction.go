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

// Package writeaction implements the Write-Action block: a scriptable
// output write, static or sourced from another item, bounded by an
// optional execution count and supporting timed overrides.
package writeaction

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
)

// Writer is the output side of a Write-Action block. The output is
// always a Point (the gateway's duration-bounded override has no
// equivalent for Global Variables).
type Writer interface {
	WriteOrAdd(ctx context.Context, id string, value string, at *time.Time, duration *time.Duration) (bool, error)
}

// Config is the Write-Action block's configuration row.
type Config struct {
	ID                string
	Name              string
	Output            point.Reference
	Static            bool
	StaticValue       string
	SourceItem        point.Reference
	MaxExecutionCount *int
	Duration          *time.Duration
}

// Block is one configured Write-Action processor instance.
type Block struct {
	Config
	ExecutionCount int
}

// New builds a Block from its configuration.
func New(cfg Config) *Block { return &Block{Config: cfg} }

// Tick writes the static value, or the current value of the source
// item, to the output point. Once ExecutionCount reaches
// MaxExecutionCount, the block stops writing entirely.
func (b *Block) Tick(ctx context.Context, resolver *blockio.Resolver, writer Writer) error {
	if b.MaxExecutionCount != nil && b.ExecutionCount >= *b.MaxExecutionCount {
		return nil
	}

	value := b.StaticValue
	if !b.Static {
		item, ok, err := resolver.ResolveOne(ctx, b.SourceItem)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		value = item.Value
	}

	if _, err := writer.WriteOrAdd(ctx, b.Output.ID, value, nil, b.Duration); err != nil {
		return err
	}
	b.ExecutionCount++
	return nil
}
