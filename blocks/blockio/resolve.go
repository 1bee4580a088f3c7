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

// Package blockio gives every block algorithm a single, uniform way to
// read its configured inputs and write its output, so the Point vs Global
// Variable branch lives here exactly once (spec.md §9: "do not replicate
// the branch in every block").
package blockio

import (
	"context"
	"strconv"
	"strings"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/cockroachdb/errors"
)

// Reader batch-fetches the Final view of Points and the current value of
// Global Variables.
type Reader interface {
	GetFinal(ctx context.Context, ids []string) (map[string]point.Item, error)
	GetGlobalVariables(ctx context.Context, ids []string) (map[string]point.Item, error)
}

// NameIndex maps a Global Variable's name (as carried in a GV: reference)
// to its relational-store id (the key the KV store actually uses).
type NameIndex interface {
	IDByName(ctx context.Context, name string) (id string, ok bool, err error)
}

// Resolver batch-resolves a mixed set of Point/Global Variable references
// for one block's tick.
type Resolver struct {
	reader Reader
	names  NameIndex
}

// NewResolver builds a Resolver.
func NewResolver(reader Reader, names NameIndex) *Resolver {
	return &Resolver{reader: reader, names: names}
}

// ResolveMany reads every ref's current item in one pass (one batch fetch
// for points, one for global variables), keyed by the ref's canonical
// string form.
func (r *Resolver) ResolveMany(ctx context.Context, refs []point.Reference) (map[string]point.Item, error) {
	var pointIDs, gvIDs []string
	gvNameByID := map[string]string{}

	for _, ref := range refs {
		switch ref.Kind {
		case point.RefPoint:
			pointIDs = append(pointIDs, ref.ID)
		case point.RefGlobalVariable:
			id, ok, err := r.names.IDByName(ctx, ref.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			gvIDs = append(gvIDs, id)
			gvNameByID[id] = ref.ID
		}
	}

	out := make(map[string]point.Item, len(refs))

	if len(pointIDs) > 0 {
		found, err := r.reader.GetFinal(ctx, pointIDs)
		if err != nil {
			return nil, err
		}
		for id, item := range found {
			out[point.Format(point.Reference{Kind: point.RefPoint, ID: id})] = item
		}
	}

	if len(gvIDs) > 0 {
		found, err := r.reader.GetGlobalVariables(ctx, gvIDs)
		if err != nil {
			return nil, err
		}
		for id, item := range found {
			name := gvNameByID[id]
			out[point.Format(point.Reference{Kind: point.RefGlobalVariable, ID: name})] = item
		}
	}

	return out, nil
}

// ResolveOne resolves a single reference, reporting ok=false when it was
// not found (missing Point or Global Variable — ResolveError territory,
// left for the caller to turn into a skipped tick).
func (r *Resolver) ResolveOne(ctx context.Context, ref point.Reference) (point.Item, bool, error) {
	found, err := r.ResolveMany(ctx, []point.Reference{ref})
	if err != nil {
		return point.Item{}, false, err
	}
	item, ok := found[point.Format(ref)]
	return item, ok, nil
}

// ParseFloat parses an item's stored value as a float, returning an
// ErrParse on failure (spec.md §7: a ParseError skips the tick, no state
// change).
func ParseFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, memerr.Parse(raw, err)
	}
	return v, nil
}

// ParseBool parses a boolean per the Totalizer/Comparison digital
// convention: case-insensitive 1/0, true/false, on/off, high/low.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "on", "high":
		return true, nil
	case "0", "false", "off", "low":
		return false, nil
	default:
		return false, memerr.Parse(raw, errUnrecognizedBoolean)
	}
}

var errUnrecognizedBoolean = errors.New("unrecognized boolean literal")
