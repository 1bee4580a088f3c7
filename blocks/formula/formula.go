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

// Package formula implements the Formula block: evaluate a cached
// compiled expression over named aliases and write the rounded result.
package formula

import (
	"context"
	"fmt"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/expreng"
	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/0xsoniclabs/memproc/point"
)

// Writer is the output side of a Formula block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Alias binds a named expression parameter to a Point or Global Variable.
type Alias struct {
	Name string
	Ref  point.Reference
}

// Config is the Formula block's configuration row.
type Config struct {
	ID            string
	Name          string
	Expression    string
	DecimalPlaces int
	Aliases       []Alias
	Output        point.Reference
}

// Block is one configured Formula processor instance.
type Block struct {
	Config
	lastError string
	log       *memlog.Logger
}

// New builds a Block from its configuration.
func New(cfg Config, logLevel string) *Block {
	return &Block{Config: cfg, log: memlog.New(logLevel, "FormulaBlock")}
}

// LastError returns the most recent evaluation failure text, cleared on
// the next successful tick.
func (b *Block) LastError() string { return b.lastError }

// Tick resolves every alias to a numeric value (a missing reference
// resolves to 0 with a warning; an unparsable value also resolves to 0),
// evaluates the cached compiled expression, rounds, and writes the
// output. An evaluation failure records the error text and skips the
// write without returning an error to the caller.
func (b *Block) Tick(ctx context.Context, resolver *blockio.Resolver, cache *expreng.Cache, writer Writer) error {
	env := make(map[string]any, len(b.Aliases))
	for _, a := range b.Aliases {
		item, ok, err := resolver.ResolveOne(ctx, a.Ref)
		if err != nil {
			return err
		}
		if !ok {
			b.log.Warningf("formula %s: alias %s unresolved, using 0", b.ID, a.Name)
			env[a.Name] = 0.0
			continue
		}
		v, err := blockio.ParseFloat(item.Value)
		if err != nil {
			b.log.Warningf("formula %s: alias %s unparsable, using 0", b.ID, a.Name)
			env[a.Name] = 0.0
			continue
		}
		env[a.Name] = v
	}

	result, err := cache.Eval(b.ID, b.Expression, env)
	if err != nil {
		b.lastError = err.Error()
		return nil
	}
	b.lastError = ""

	rounded := fmt.Sprintf("%.*f", b.DecimalPlaces, result)
	return writer.WriteOutput(ctx, b.Output, rounded)
}
