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

// Package scheduler implements the Block Scheduler: a shared one-second
// tick, per-block cadence gating against an in-process last_executed map,
// and the startup DB-readiness wait. Each block type gets its own
// Scheduler instance running as a long-lived task; different instances run
// in parallel, coupled only through the Value Store and relational store.
package scheduler

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memlog"
)

// Tick is the scheduler's shared cadence floor (spec.md §2: "the cadence
// floor is one second").
const Tick = time.Second

// Block is one schedulable unit: a block-type processor calls Run for
// every enabled block whose interval has elapsed.
type Block interface {
	ID() string
	Interval() time.Duration
	IsDisabled() bool
}

// Runner executes one block's tick. A non-nil error is logged with the
// block's id; it never stops the scheduler loop.
type Runner func(ctx context.Context, b Block) error

// Scheduler runs one block type's cooperative, single-threaded loop.
type Scheduler struct {
	name         string
	log          *memlog.Logger
	lastExecuted map[string]time.Time
	now          func() time.Time
}

// New builds a Scheduler for one block type, named for logging.
func New(blockTypeName string, logLevel string) *Scheduler {
	return &Scheduler{
		name:         blockTypeName,
		log:          memlog.New(logLevel, "Scheduler."+blockTypeName),
		lastExecuted: make(map[string]time.Time),
		now:          time.Now,
	}
}

// Due reports whether b is enabled and its interval has elapsed since its
// last execution (or it has never executed).
func (s *Scheduler) Due(b Block) bool {
	if b.IsDisabled() {
		return false
	}
	last, ok := s.lastExecuted[b.ID()]
	if !ok {
		return true
	}
	return s.now().Sub(last) >= b.Interval()
}

// MarkExecuted records b's execution time for cadence gating.
func (s *Scheduler) MarkExecuted(b Block) {
	s.lastExecuted[b.ID()] = s.now()
}

// RunOnce processes one tick: for each block in list (sequential,
// left-to-right), run it if due. A block's error or panic is logged and
// never stalls the remaining blocks.
func (s *Scheduler) RunOnce(ctx context.Context, list []Block, run Runner) {
	for _, b := range list {
		if !s.Due(b) {
			continue
		}
		s.runSafely(ctx, b, run)
		s.MarkExecuted(b)
	}
}

func (s *Scheduler) runSafely(ctx context.Context, b Block, run Runner) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("block %s panicked: %v", b.ID(), r)
		}
	}()
	if err := run(ctx, b); err != nil {
		s.log.Warningf("block %s failed: %v", b.ID(), err)
	}
}

// Loop runs RunOnce every Tick until ctx is cancelled. list is called
// again on each tick, so the block set is whatever list returns at that
// moment; a caller that returns a fixed slice gets a fixed block set.
func (s *Scheduler) Loop(ctx context.Context, list func() []Block, run Runner) {
	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, list(), run)
		}
	}
}
