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

package repo

import (
	"reflect"
	"strings"
)

// namedColumns reflects over cfg's `db:"..."` tags and returns a
// comma-joined column list, the matching `:name` placeholder list, and an
// args map suitable for sqlx.NamedExecContext. The block_id column is
// handled separately by the caller, since it is not part of T.
func namedColumns(cfg any) (cols string, placeholders string, args map[string]any) {
	args = map[string]any{}
	var colNames, phNames []string
	forEachDBField(cfg, func(name string, value any) {
		colNames = append(colNames, name)
		phNames = append(phNames, ":"+name)
		args[name] = value
	})
	return strings.Join(colNames, ", "), strings.Join(phNames, ", "), args
}

// namedAssignments reflects over cfg's `db:"..."` tags and returns a
// comma-joined `col = :col` assignment list plus the matching args map.
func namedAssignments(cfg any) (assignments string, args map[string]any) {
	args = map[string]any{}
	var parts []string
	forEachDBField(cfg, func(name string, value any) {
		parts = append(parts, name+" = :"+name)
		args[name] = value
	})
	return strings.Join(parts, ", "), args
}

// selectColumns returns the comma-joined, `db:"..."`-tagged column list of
// cfg's underlying struct type, for building an explicit SELECT instead of
// `SELECT *` (which would otherwise pull back the block_id join column that
// T does not declare a field for).
func selectColumns(cfg any) string {
	var cols []string
	forEachDBField(cfg, func(name string, _ any) {
		cols = append(cols, name)
	})
	return strings.Join(cols, ", ")
}

// scanTargets returns the addressable destinations for a `block_id, <cfg
// columns...>` row scan: id's single field first, then cfg's `db:"..."`
// fields in the same order selectColumns(cfg) produced them in.
func scanTargets(id any, cfg any) []any {
	targets := []any{}
	forEachDBFieldAddr(id, func(_ string, addr any) {
		targets = append(targets, addr)
	})
	forEachDBFieldAddr(cfg, func(_ string, addr any) {
		targets = append(targets, addr)
	})
	return targets
}

func forEachDBFieldAddr(cfg any, fn func(name string, addr any)) {
	v := reflect.ValueOf(cfg)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		fn(name, v.Field(i).Addr().Interface())
	}
}

func forEachDBField(cfg any, fn func(name string, value any)) {
	v := reflect.ValueOf(cfg)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || tag == "block_id" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		fn(name, v.Field(i).Interface())
	}
}
