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

// Output writing lives here too, for the same reason resolution does: the
// Point vs Global Variable branch should exist exactly once.
package blockio

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/point"
)

// PointWriter is the subset of the Value Store Gateway a block needs to
// write a Point output.
type PointWriter interface {
	WriteOrAdd(ctx context.Context, id string, value string, at *time.Time, duration *time.Duration) (bool, error)
}

// VariableWriter is the subset of the Global Variable service a block needs
// to write a Global Variable output.
type VariableWriter interface {
	SetGlobalVariable(ctx context.Context, id, value string) error
}

// NameIndexWriter resolves a Global Variable alias name to its relational
// id for the write path (the KV store is keyed by id, not by name).
type NameIndexWriter interface {
	IDByName(ctx context.Context, name string) (id string, ok bool, err error)
}

// OutputWriter writes a single block's output to either a Point or a
// Global Variable, depending on the output reference's kind.
type OutputWriter struct {
	points NameIndexWriter
	pw     PointWriter
	vw     VariableWriter
}

// NewOutputWriter builds an OutputWriter. names resolves Global Variable
// aliases to ids; pw and vw perform the actual writes.
func NewOutputWriter(names NameIndexWriter, pw PointWriter, vw VariableWriter) *OutputWriter {
	return &OutputWriter{points: names, pw: pw, vw: vw}
}

// WriteOutput writes value to ref, branching on whether ref names a Point
// or a Global Variable. An unresolvable Global Variable alias is a
// ResolveError: the write is skipped, matching the read-side contract.
func (w *OutputWriter) WriteOutput(ctx context.Context, ref point.Reference, value string) error {
	switch ref.Kind {
	case point.RefPoint:
		_, err := w.pw.WriteOrAdd(ctx, ref.ID, value, nil, nil)
		return err
	case point.RefGlobalVariable:
		id, ok, err := w.points.IDByName(ctx, ref.ID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return w.vw.SetGlobalVariable(ctx, id, value)
	default:
		return nil
	}
}
