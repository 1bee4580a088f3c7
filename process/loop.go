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

// Package process adapts the twelve per-block-type algorithm packages onto
// the Block Scheduler and the Startup Supervisor: one Unit per configured
// block, one TypeLoop per block type, matching the concurrency model of
// spec.md §5 ("each block type runs in its own long-lived task").
package process

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/0xsoniclabs/memproc/scheduler"
)

// Unit adapts one configured block instance to scheduler.Block. The tick
// closure is bound once at construction to the block's own Tick method
// plus whatever resolver/writer/clock it needs, so TypeLoop stays generic
// across block types with different Tick signatures.
type Unit struct {
	id       string
	interval time.Duration
	disabled bool
	run      func(ctx context.Context) error
}

// NewUnit builds a Unit. run is typically a closure over one block
// instance's Tick method.
func NewUnit(id string, interval time.Duration, disabled bool, run func(ctx context.Context) error) *Unit {
	return &Unit{id: id, interval: interval, disabled: disabled, run: run}
}

func (u *Unit) ID() string              { return u.id }
func (u *Unit) Interval() time.Duration { return u.interval }
func (u *Unit) IsDisabled() bool        { return u.disabled }

// TypeLoop runs every Unit of one block type on the shared scheduler tick.
// It implements supervisor.Processor.
type TypeLoop struct {
	typeName string
	sched    *scheduler.Scheduler
	units    []*Unit
}

// NewTypeLoop builds a TypeLoop over a fixed set of units, loaded once at
// boot (spec.md §9: "instances are created once at boot"; config edits
// take effect on the next process restart, since CRUD is an external
// collaborator per spec.md §1).
func NewTypeLoop(typeName, logLevel string, units []*Unit) *TypeLoop {
	return &TypeLoop{
		typeName: typeName,
		sched:    scheduler.New(typeName, logLevel),
		units:    units,
	}
}

// Name identifies this processor to the Supervisor.
func (t *TypeLoop) Name() string { return t.typeName }

// Run drives the scheduler's one-second tick loop until ctx is cancelled.
func (t *TypeLoop) Run(ctx context.Context) error {
	list := make([]scheduler.Block, len(t.units))
	for i, u := range t.units {
		list[i] = u
	}
	t.sched.Loop(ctx, func() []scheduler.Block { return list }, func(ctx context.Context, b scheduler.Block) error {
		return b.(*Unit).run(ctx)
	})
	return ctx.Err()
}

// BackgroundTask wraps a plain periodic job (e.g. sample pruning) as a
// supervisor.Processor, for jobs that are not keyed to any one block.
type BackgroundTask struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	log      *memlog.Logger
}

// NewBackgroundTask builds a BackgroundTask that calls run every interval.
func NewBackgroundTask(name string, interval time.Duration, logLevel string, run func(ctx context.Context) error) *BackgroundTask {
	return &BackgroundTask{name: name, interval: interval, run: run, log: memlog.New(logLevel, name)}
}

func (b *BackgroundTask) Name() string { return b.name }

func (b *BackgroundTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.run(ctx); err != nil {
				b.log.Warningf("background task failed: %v", err)
			}
		}
	}
}
