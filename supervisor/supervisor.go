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

// Package supervisor launches each block-type processor under a
// restartable task and blocks on a DB-readiness probe before any processor
// starts, per spec.md §4.1 and §9 ("instances are created once at boot").
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/0xsoniclabs/memproc/scheduler"
)

// Processor is one long-lived block-type task.
type Processor interface {
	Name() string
	Run(ctx context.Context) error
}

// RestartBackoff is the pause between a processor's crash and its restart.
// A var, not a const, so tests can shrink it.
var RestartBackoff = 2 * time.Second

// Supervisor owns the set of processor tasks and their restart policy.
type Supervisor struct {
	log *memlog.Logger
}

// New builds a Supervisor.
func New(logLevel string) *Supervisor {
	return &Supervisor{log: memlog.New(logLevel, "Supervisor")}
}

// Start blocks on the readiness probe, then launches every processor as an
// independent, restartable goroutine. It returns once all processors have
// been launched (it does not block on their completion); callers wait on
// ctx themselves.
func (s *Supervisor) Start(ctx context.Context, probe func(context.Context) error, processors []Processor) error {
	if err := scheduler.WaitForReady(ctx, probe, scheduler.DefaultProbeAttempts, scheduler.DefaultProbeInterval, "INFO"); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, p := range processors {
		wg.Add(1)
		go func(p Processor) {
			defer wg.Done()
			s.runRestartable(ctx, p)
		}(p)
	}
	// Processors run for the life of ctx; Start does not join wg so callers
	// can proceed to other boot steps. Store the group if a future caller
	// needs to await shutdown.
	go func() {
		wg.Wait()
	}()
	return nil
}

func (s *Supervisor) runRestartable(ctx context.Context, p Processor) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.runOnce(ctx, p)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.log.Errorf("processor %s exited: %v, restarting in %s", p.Name(), err, RestartBackoff)
		} else {
			s.log.Warningf("processor %s returned without error, restarting in %s", p.Name(), RestartBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(RestartBackoff):
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, p Processor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("processor %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Run(ctx)
}
