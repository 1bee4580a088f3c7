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

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Service is the Global Variable CRUD boundary plus the rename transaction
// and usage index.
type Service struct {
	db     *sqlx.DB
	repo   Repository
	tables []ReferenceTable
	index  usageIndex
	log    *memlog.Logger
}

// New builds a Service. tables enumerates every block table that may hold a
// reference to a Global Variable; Rename and FindUsages scan exactly these.
func New(db *sqlx.DB, repo Repository, kv *redis.Client, tables []ReferenceTable, logLevel string) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		tables: tables,
		index:  usageIndex{kv: kv},
		log:    memlog.New(logLevel, "GlobalVariableService"),
	}
}

// Create validates and inserts a new variable.
func (s *Service) Create(ctx context.Context, v *Variable) error {
	if err := ValidateName(v.Name); err != nil {
		return memerr.Configuration("%v", err)
	}
	if existing, _ := s.repo.Get(ctx, v.Name); existing != nil {
		return memerr.Configuration("global variable %q already exists", v.Name)
	}
	return s.repo.Create(ctx, v)
}

// Edit updates a variable's value/disabled flag. Renaming must go through
// Rename, never Edit, since it requires the cross-table transaction.
func (s *Service) Edit(ctx context.Context, v *Variable) error {
	current, err := s.repo.Get(ctx, v.Name)
	if err != nil {
		return err
	}
	if current == nil {
		return memerr.Configuration("global variable %q not found", v.Name)
	}
	return s.repo.Update(ctx, v)
}

// IDByName resolves a Global Variable's relational id from its name,
// satisfying blockio.NameIndex for the block read/write paths (the KV
// store keys Global Variable items by id, not by name).
func (s *Service) IDByName(ctx context.Context, name string) (string, bool, error) {
	v, err := s.repo.Get(ctx, name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return v.ID, true, nil
}

// Delete removes a variable. Refused while any usage exists.
func (s *Service) Delete(ctx context.Context, name string) error {
	usages, err := s.FindUsages(ctx, name)
	if err != nil {
		return err
	}
	if len(usages) > 0 {
		return memerr.Configuration("global variable %q is still referenced by %d row(s)", name, len(usages))
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	return s.index.invalidate(ctx, name)
}

// FindUsages returns every row referencing name, consulting the Redis
// cache first and rebuilding from a full table scan on a miss.
func (s *Service) FindUsages(ctx context.Context, name string) ([]Usage, error) {
	if cached, hit, err := s.index.find(ctx, name); err != nil {
		return nil, err
	} else if hit {
		return cached, nil
	}

	usages, err := s.scanUsages(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if err := s.index.rebuild(ctx, name, usages); err != nil {
		s.log.Warningf("usage index rebuild failed for %q: %v", name, err)
	}
	return usages, nil
}

// scanUsages performs the full-table-scan defined by s.tables, optionally
// inside an existing transaction (queryer may be *sqlx.DB or *sqlx.Tx).
func (s *Service) scanUsages(ctx context.Context, q sqlx.QueryerContext, name string) ([]Usage, error) {
	plainRef := "GV:" + name
	aliasTok := AliasRef(name)

	var out []Usage
	for _, t := range s.tables {
		for _, col := range t.PlainRefColumns {
			rows, err := q.QueryxContext(ctx,
				rebind(q, fmt.Sprintf(`SELECT id FROM %s WHERE %s = ?`, t.Table, col)), plainRef)
			if err != nil {
				return nil, memerr.TransientStore("scan usages", err)
			}
			if err := collectIDs(rows, t.Table, &out); err != nil {
				return nil, err
			}
		}
		for _, col := range t.AliasColumns {
			rows, err := q.QueryxContext(ctx,
				rebind(q, fmt.Sprintf(`SELECT id FROM %s WHERE %s LIKE ?`, t.Table, col)), "%"+aliasTok+"%")
			if err != nil {
				return nil, memerr.TransientStore("scan usages", err)
			}
			if err := collectIDs(rows, t.Table, &out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Rename is the critical operation: one transaction updates the variable
// row and every referencing row across all block tables, following the
// teacher repo's jmoiron/sqlx access style extended to a write transaction.
// Only on commit does the variable's name actually change; on any failure
// no row anywhere is left mentioning the new name.
func (s *Service) Rename(ctx context.Context, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return memerr.Configuration("%v", err)
	}
	if existing, _ := s.repo.Get(ctx, newName); existing != nil {
		return memerr.Configuration("global variable %q already exists", newName)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return memerr.TransientStore("begin rename tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	oldPlain, newPlain := "GV:"+oldName, "GV:"+newName
	oldAlias, newAlias := AliasRef(oldName), AliasRef(newName)

	for _, t := range s.tables {
		for _, col := range t.PlainRefColumns {
			if _, err := tx.ExecContext(ctx,
				rebind(tx, fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, t.Table, col, col)),
				newPlain, oldPlain); err != nil {
				return memerr.TransientStore("rename plain reference", err)
			}
		}
		for _, col := range t.AliasColumns {
			if _, err := tx.ExecContext(ctx,
				rebind(tx, fmt.Sprintf(`UPDATE %s SET %s = REPLACE(%s, ?, ?) WHERE %s LIKE ?`, t.Table, col, col, col)),
				oldAlias, newAlias, "%"+oldAlias+"%"); err != nil {
				return memerr.TransientStore("rename alias reference", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		rebind(tx, `UPDATE global_variables SET name = ? WHERE name = ?`), newName, oldName); err != nil {
		return memerr.TransientStore("rename variable row", err)
	}

	if err := tx.Commit(); err != nil {
		return memerr.TransientStore("commit rename tx", err)
	}
	committed = true

	if err := s.index.invalidate(ctx, oldName); err != nil {
		s.log.Warningf("cache invalidation failed for %q: %v", oldName, err)
	}
	if err := s.index.invalidate(ctx, newName); err != nil {
		s.log.Warningf("cache invalidation failed for %q: %v", newName, err)
	}
	return nil
}

func collectIDs(rows *sqlx.Rows, table string, out *[]Usage) error {
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return memerr.TransientStore("scan usage row", err)
		}
		*out = append(*out, Usage{Table: table, ID: id})
	}
	return nil
}

// rebind adapts '?' placeholders to the bind type of whichever queryer is
// in play (DB or Tx share the same driver bindvar type in practice here).
func rebind(q sqlx.QueryerContext, query string) string {
	type rebinder interface{ Rebind(string) string }
	if r, ok := q.(rebinder); ok {
		return r.Rebind(query)
	}
	return strings.ReplaceAll(query, "?", "?")
}
