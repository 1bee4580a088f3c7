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

package scheduler

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/internal/memlog"
)

// DefaultProbeAttempts and DefaultProbeInterval match spec.md §4.1/§5: at
// most 30 attempts, 2 seconds apart, before the process gives up.
const (
	DefaultProbeAttempts = 30
	DefaultProbeInterval = 2 * time.Second
)

// WaitForReady blocks on probe until it succeeds or attempts are
// exhausted. It is the only fatal-to-the-process failure mode: a
// processor loop never calls this again once started.
func WaitForReady(ctx context.Context, probe func(context.Context) error, attempts int, interval time.Duration, logLevel string) error {
	log := memlog.New(logLevel, "StartupProbe")
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = probe(ctx)
		if lastErr == nil {
			return nil
		}
		log.Warningf("readiness probe attempt %d/%d failed: %v", i+1, attempts, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return memerr.TransientStore("startup readiness probe", lastErr)
}
