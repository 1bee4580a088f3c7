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

// Package memerr defines the processor-wide error taxonomy. Sentinels are
// wrapped with github.com/cockroachdb/errors so errors.Is/errors.As keep
// working across package boundaries, matching the wrapping style of
// executor/trace_provider.go and tracer/file_reader.go in the teacher repo.
package memerr

import "github.com/cockroachdb/errors"

// Sentinel classes. A block loop type-switches on these (via errors.Is) to
// decide whether to skip the tick, persist last_error, or let a
// TransientStoreError bubble up to the outer retry loop.
var (
	// ErrConfiguration marks a validation failure on create/edit; it is
	// returned synchronously to the caller and never reaches a processor loop.
	ErrConfiguration = errors.New("configuration error")

	// ErrResolve marks a missing Point or Global Variable at tick time.
	ErrResolve = errors.New("resolve error")

	// ErrParse marks a value that could not be parsed to the required type.
	ErrParse = errors.New("parse error")

	// ErrEvaluation marks an expression that failed to evaluate.
	ErrEvaluation = errors.New("evaluation error")

	// ErrTransientStore marks an unavailable DB or KV store.
	ErrTransientStore = errors.New("transient store error")

	// ErrSafetyAbort marks a PID auto-tune session forced to Failed by an
	// amplitude or cycle-count safety limit.
	ErrSafetyAbort = errors.New("safety abort")
)

// Configuration wraps err as an ErrConfiguration.
func Configuration(format string, args ...any) error {
	return errors.WithMessagef(ErrConfiguration, format, args...)
}

// Resolve wraps the reference that could not be resolved.
func Resolve(ref string, cause error) error {
	return errors.Wrapf(ErrResolve, "%s: %v", ref, cause)
}

// Parse wraps a value that failed to parse, naming the raw input.
func Parse(raw string, cause error) error {
	return errors.Wrapf(ErrParse, "%q: %v", raw, cause)
}

// Evaluation wraps an expression-evaluation failure.
func Evaluation(expr string, cause error) error {
	return errors.Wrapf(ErrEvaluation, "%q: %v", expr, cause)
}

// TransientStore wraps a store-unavailability failure.
func TransientStore(op string, cause error) error {
	return errors.Wrapf(ErrTransientStore, "%s: %v", op, cause)
}

// SafetyAbort wraps a human-readable tuning safety-limit reason.
func SafetyAbort(reason string) error {
	return errors.Wrapf(ErrSafetyAbort, "%s", reason)
}
