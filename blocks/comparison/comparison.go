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

// Package comparison implements the Comparison block: N-of-M voting over
// one or more groups of inputs, combined by an outer AND/OR/XOR operator.
package comparison

import (
	"context"
	"math"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
)

// Mode selects how a group's inputs are interpreted.
type Mode int

const (
	Analog Mode = iota
	Digital
)

// CompareType is an analog group's comparison predicate.
type CompareType int

const (
	Higher CompareType = iota
	Lower
	Equal
	NotEqual
	Between
)

// OuterOp combines the per-group results into the block's final value.
type OuterOp int

const (
	AND OuterOp = iota
	OR
	XOR
)

// Writer is the output side of a Comparison block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// GroupConfig is one group's static configuration.
type GroupConfig struct {
	Inputs              []point.Reference
	Mode                Mode
	CompareType         CompareType
	Threshold1          float64
	Threshold2          float64
	ThresholdHysteresis float64
	RequiredVotes       int
	VotingHysteresis    int
	DigitalValue        bool
}

// group is a GroupConfig plus its loop-carried per-input and group ON/OFF
// hysteresis state (design note: hysteresis state lives inside the
// processor instance, not folded into a pure function).
type group struct {
	cfg      GroupConfig
	inputOn  []bool
	groupOn  bool
	hasState bool
}

func newGroup(cfg GroupConfig) *group {
	return &group{cfg: cfg, inputOn: make([]bool, len(cfg.Inputs))}
}

// Config is the Comparison block's configuration row.
type Config struct {
	ID      string
	Name    string
	Groups  []GroupConfig
	OuterOp OuterOp
	Invert  bool
	Output  point.Reference
}

// Block is one configured Comparison processor instance.
type Block struct {
	id          string
	output      point.Reference
	outerOp     OuterOp
	invert      bool
	groups      []*group
	lastWritten *bool
}

// New builds a Block from its configuration.
func New(cfg Config) *Block {
	groups := make([]*group, len(cfg.Groups))
	for i, gc := range cfg.Groups {
		groups[i] = newGroup(gc)
	}
	return &Block{id: cfg.ID, output: cfg.Output, outerOp: cfg.OuterOp, invert: cfg.Invert, groups: groups}
}

// Tick evaluates every group, combines the results with the outer
// operator, optionally inverts, and writes only when the binary value
// changes.
func (b *Block) Tick(ctx context.Context, resolver *blockio.Resolver, writer Writer) error {
	results := make([]bool, len(b.groups))
	for i, g := range b.groups {
		result, err := g.evaluate(ctx, resolver)
		if err != nil {
			return err
		}
		results[i] = result
	}

	combined := combine(b.outerOp, results)
	if b.invert {
		combined = !combined
	}

	if b.lastWritten != nil && *b.lastWritten == combined {
		return nil
	}

	value := "0"
	if combined {
		value = "1"
	}
	if err := writer.WriteOutput(ctx, b.output, value); err != nil {
		return err
	}
	b.lastWritten = &combined
	return nil
}

func combine(op OuterOp, results []bool) bool {
	if len(results) == 0 {
		return false
	}
	switch op {
	case AND:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case OR:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case XOR:
		count := 0
		for _, r := range results {
			if r {
				count++
			}
		}
		return count == 1
	default:
		return false
	}
}

// evaluate reads every input's current value, tallies votes per the
// group's comparison type and per-input threshold hysteresis, then
// applies voting hysteresis to decide the group's ON/OFF output.
func (g *group) evaluate(ctx context.Context, resolver *blockio.Resolver) (bool, error) {
	votes := 0
	for i, ref := range g.cfg.Inputs {
		item, ok, err := resolver.ResolveOne(ctx, ref)
		if err != nil {
			return g.groupOn, err
		}
		if !ok {
			continue
		}

		var voted bool
		if g.cfg.Mode == Digital {
			b, err := blockio.ParseBool(item.Value)
			if err != nil {
				continue
			}
			voted = b == g.cfg.DigitalValue
		} else {
			raw, err := blockio.ParseFloat(item.Value)
			if err != nil {
				continue
			}
			voted = g.evaluateAnalog(i, raw)
		}
		if voted {
			votes++
		}
	}

	total := len(g.cfg.Inputs)
	onThreshold := g.cfg.RequiredVotes + g.cfg.VotingHysteresis
	if onThreshold > total {
		onThreshold = total
	}
	offThreshold := g.cfg.RequiredVotes - g.cfg.VotingHysteresis
	if offThreshold < 0 {
		offThreshold = 0
	}

	if g.groupOn {
		if votes < offThreshold {
			g.groupOn = false
		}
	} else {
		if votes >= onThreshold {
			g.groupOn = true
		}
	}
	g.hasState = true
	return g.groupOn, nil
}

// evaluateAnalog applies one input's comparison type, using per-input
// ON/OFF state to pick which hysteresis band applies for Higher, Lower,
// and Between. Equal and NotEqual are memoryless per the documented
// open-question decision.
func (g *group) evaluateAnalog(i int, raw float64) bool {
	h := g.cfg.ThresholdHysteresis
	t1 := g.cfg.Threshold1

	switch g.cfg.CompareType {
	case Higher:
		if g.inputOn[i] {
			g.inputOn[i] = raw > t1-h
		} else {
			g.inputOn[i] = raw > t1+h
		}
		return g.inputOn[i]
	case Lower:
		if g.inputOn[i] {
			g.inputOn[i] = raw < t1+h
		} else {
			g.inputOn[i] = raw < t1-h
		}
		return g.inputOn[i]
	case Between:
		lo, hi := g.cfg.Threshold1, g.cfg.Threshold2
		if g.inputOn[i] {
			g.inputOn[i] = raw >= lo-h && raw <= hi+h
		} else {
			g.inputOn[i] = raw >= lo+h && raw <= hi-h
		}
		return g.inputOn[i]
	case Equal:
		return math.Abs(raw-t1) <= h
	case NotEqual:
		return math.Abs(raw-t1) > h
	default:
		return false
	}
}
