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

// Package ifblock implements the If (Conditional) block: up to twenty
// ordered branches, each evaluated top-down with short-circuit, falling
// back to a default value when none matches.
package ifblock

import (
	"context"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// CompareType is a branch's threshold predicate, reusing the Comparison
// block's analog vocabulary (a branch is, in effect, a single-input
// comparison group).
type CompareType int

const (
	Higher CompareType = iota
	Lower
	Equal
	NotEqual
)

// Writer is the output side of an If block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

const maxBranches = 20

// BranchConfig is one ordered branch's static configuration.
type BranchConfig struct {
	Input       point.Reference
	CompareType CompareType
	Threshold   float64
	Hysteresis  float64
	Value       string
}

// Config is the If block's configuration row.
type Config struct {
	ID           string
	Name         string
	Branches     []BranchConfig
	DefaultValue string
	Output       point.Reference
}

// branch pairs a BranchConfig with its loop-carried ON/OFF hysteresis
// state (meaningful only for Higher/Lower).
type branch struct {
	cfg BranchConfig
	on  bool
}

// Block is one configured If processor instance.
type Block struct {
	id      string
	output  point.Reference
	branches []*branch
	defVal  string
}

// New builds a Block from its configuration. Configurations carrying more
// than twenty branches are truncated to the first twenty.
func New(cfg Config) *Block {
	branches := cfg.Branches
	if len(branches) > maxBranches {
		branches = branches[:maxBranches]
	}
	bs := make([]*branch, len(branches))
	for i, bc := range branches {
		bs[i] = &branch{cfg: bc}
	}
	return &Block{id: cfg.ID, output: cfg.Output, branches: bs, defVal: cfg.DefaultValue}
}

// Tick evaluates branches top-down; the first truthy one's value is
// written. If none match, default_value is written.
func (b *Block) Tick(ctx context.Context, resolver *blockio.Resolver, writer Writer) error {
	for _, br := range b.branches {
		item, ok, err := resolver.ResolveOne(ctx, br.cfg.Input)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		raw, err := blockio.ParseFloat(item.Value)
		if err != nil {
			continue
		}
		if br.evaluate(raw) {
			return writer.WriteOutput(ctx, b.output, br.cfg.Value)
		}
	}
	return writer.WriteOutput(ctx, b.output, b.defVal)
}

// evaluate applies the branch's comparison with hysteresis, using the
// branch's own ON/OFF state to pick the active band for Higher/Lower.
// Equal and NotEqual are memoryless, matching the Comparison block's
// documented Equal-mode decision.
func (br *branch) evaluate(raw float64) bool {
	t, h := br.cfg.Threshold, br.cfg.Hysteresis
	switch br.cfg.CompareType {
	case Higher:
		if br.on {
			br.on = raw > t-h
		} else {
			br.on = raw > t+h
		}
		return br.on
	case Lower:
		if br.on {
			br.on = raw < t+h
		} else {
			br.on = raw < t-h
		}
		return br.on
	case Equal:
		return absDiff(raw, t) <= h
	case NotEqual:
		return absDiff(raw, t) > h
	default:
		return false
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// ValidateBranchCount returns a ConfigurationError if more than twenty
// branches were supplied.
func ValidateBranchCount(n int) error {
	if n > maxBranches {
		return memerr.Configuration("if block supports at most %d branches, got %d", maxBranches, n)
	}
	return nil
}
