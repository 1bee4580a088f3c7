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

package globalvar

import "context"

// Repository is the CRUD boundary for Global Variable configuration rows,
// deliberately a thin interface per spec.md's "treated as a repository
// interface" scoping of CRUD concerns out of the processor core.
type Repository interface {
	Get(ctx context.Context, name string) (*Variable, error)
	Create(ctx context.Context, v *Variable) error
	Update(ctx context.Context, v *Variable) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*Variable, error)
}

// ReferenceTable describes one block table's columns that may hold a
// reference to a Global Variable, so the rename transaction can rewrite
// them uniformly without a block-type-specific branch per table.
type ReferenceTable struct {
	// Table is the block configuration table name.
	Table string
	// PlainRefColumns hold a bare source reference in "GV:<name>" form
	// (block inputs/outputs), rewritten verbatim on rename.
	PlainRefColumns []string
	// AliasColumns hold free-form text (e.g. a JSON alias map) that may
	// embed "@GV:<name>" tokens anywhere in the column value.
	AliasColumns []string
}
