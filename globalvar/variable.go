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

// Package globalvar implements the Global Variable Service: named scalar
// CRUD, the atomic rename transaction that rewrites every referencing row
// across all block tables, and the Redis-backed usage index cache.
package globalvar

import (
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
)

// VarType is a Global Variable's scalar type.
type VarType string

const (
	Boolean VarType = "Boolean"
	Float   VarType = "Float"
)

// Variable is a named scalar: value lives in the KV store, this row is its
// relational-store configuration.
type Variable struct {
	ID         string
	Name       string
	Type       VarType
	Value      string
	IsDisabled bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName enforces the global-uniqueness-eligible name charset.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.Newf("invalid global variable name %q: must match [A-Za-z0-9_-]+", name)
	}
	return nil
}

// aliasPrefix is the notation Formula/If alias values use to point at a
// Global Variable, distinct from the Source Reference Resolver's "GV:"
// prefix used for block input/output references.
const aliasPrefix = "@GV:"

// AliasRef formats a Global Variable name as a Formula/If alias value.
func AliasRef(name string) string { return aliasPrefix + name }
