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

// Package minmax implements the Min/Max Selector block: pick the
// extremum among k analog inputs, with configurable failover behavior
// when some inputs are invalid.
package minmax

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
)

// SelectMode picks the minimum or maximum among valid candidates.
type SelectMode int

const (
	SelectMin SelectMode = iota
	SelectMax
)

// FailoverMode governs behavior when one or more inputs are invalid
// (unresolvable or unparsable) on a given tick.
type FailoverMode int

const (
	// StrictSelection requires every configured input to be valid; any
	// invalid input makes the whole tick invalid.
	StrictSelection FailoverMode = iota
	// FallbackToFirstValid selects among whichever inputs are valid,
	// ignoring the rest.
	FallbackToFirstValid
	// UseLastValid behaves like FallbackToFirstValid, but when no input
	// is valid it holds the previously selected value (subject to
	// Duration) instead of aborting immediately.
	UseLastValid
)

// Writer is the output side of a Min/Max Selector block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Min/Max Selector block's configuration row.
type Config struct {
	ID            string
	Name          string
	Inputs        []point.Reference
	SelectMode    SelectMode
	Failover      FailoverMode
	Output        point.Reference
	IndexOutput   *point.Reference
	HoldDuration  time.Duration
	DecimalPlaces int
}

// Block is one configured Min/Max Selector processor instance.
type Block struct {
	Config

	lastValid        *float64
	lastValidIndex   int
	invalidSince     time.Time
	currentlyInvalid bool
}

// New builds a Block from its configuration.
func New(cfg Config) *Block { return &Block{Config: cfg} }

// Tick resolves every input, selects the extremum among valid candidates
// per the configured failover mode, and writes the result (and index, if
// configured). If no candidate is available and the failover mode is
// UseLastValid, it holds the last valid value for up to HoldDuration (a
// zero HoldDuration holds indefinitely), then aborts the write entirely;
// in the other failover modes nothing is written on such a tick.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	vals := make([]float64, len(b.Inputs))
	valid := make([]bool, len(b.Inputs))

	for i, ref := range b.Inputs {
		item, ok, err := resolver.ResolveOne(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		v, err := blockio.ParseFloat(item.Value)
		if err != nil {
			continue
		}
		vals[i] = v
		valid[i] = true
	}

	allValid := true
	for _, v := range valid {
		if !v {
			allValid = false
			break
		}
	}

	var candidateIdxs []int
	if b.Failover == StrictSelection {
		if allValid {
			for i := range vals {
				candidateIdxs = append(candidateIdxs, i)
			}
		}
	} else {
		for i, v := range valid {
			if v {
				candidateIdxs = append(candidateIdxs, i)
			}
		}
	}

	if len(candidateIdxs) == 0 {
		return b.hold(ctx, now, writer)
	}

	b.currentlyInvalid = false
	selectedIdx := candidateIdxs[0]
	for _, i := range candidateIdxs[1:] {
		if (b.SelectMode == SelectMin && vals[i] < vals[selectedIdx]) ||
			(b.SelectMode == SelectMax && vals[i] > vals[selectedIdx]) {
			selectedIdx = i
		}
	}

	selected := vals[selectedIdx]
	b.lastValid = &selected
	b.lastValidIndex = selectedIdx

	if err := writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, selected)); err != nil {
		return err
	}
	if b.IndexOutput != nil {
		if err := writer.WriteOutput(ctx, *b.IndexOutput, fmt.Sprintf("%d", selectedIdx)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) hold(ctx context.Context, now time.Time, writer Writer) error {
	if !b.currentlyInvalid {
		b.currentlyInvalid = true
		b.invalidSince = now
	}

	if b.Failover != UseLastValid || b.lastValid == nil {
		return nil
	}
	if b.HoldDuration > 0 && now.Sub(b.invalidSince) > b.HoldDuration {
		return nil
	}

	if err := writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, *b.lastValid)); err != nil {
		return err
	}
	if b.IndexOutput != nil {
		return writer.WriteOutput(ctx, *b.IndexOutput, fmt.Sprintf("%d", b.lastValidIndex))
	}
	return nil
}
