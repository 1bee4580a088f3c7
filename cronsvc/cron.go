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

// Package cronsvc evaluates standard five-field cron expressions (UTC) for
// the Totalizer block's scheduled-reset policy.
package cronsvc

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse validates a standard five-field UTC cron expression.
func Parse(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cron expression %q", expr)
	}
	return sched, nil
}

// Next returns the next fire time strictly after `after`.
func Next(expr string, after time.Time) (time.Time, error) {
	sched, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after.UTC()), nil
}

// DueSince reports whether a scheduled occurrence has happened strictly
// after lastFireTime and at or before now — i.e. the reset should fire on this
// tick. lastFireTime is the timestamp of the last recorded reset (or the
// block's creation time if it has never reset).
func DueSince(expr string, lastFireTime, now time.Time) (bool, error) {
	next, err := Next(expr, lastFireTime)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}
