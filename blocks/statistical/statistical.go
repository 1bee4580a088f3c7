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

// Package statistical implements the Statistical block: rolling or
// tumbling-window descriptive statistics over one input's samples.
package statistical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/0xsoniclabs/memproc/window"
	"gonum.org/v1/gonum/stat"
)

// WindowType selects rolling (always compute over the most recent
// samples) or tumbling (compute only once a full batch accumulates, then
// clear) behavior.
type WindowType int

const (
	Rolling WindowType = iota
	Tumbling
)

// SampleStore is the windowed persistence a Statistical block needs,
// satisfied by *window.Store.
type SampleStore interface {
	Append(ctx context.Context, blockID string, sample window.Sample) error
	Recent(ctx context.Context, blockID string, limit int) ([]window.Sample, error)
	Clear(ctx context.Context, blockID string) error
}

// Writer is the output side of a Statistical block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Outputs maps each computed statistic to where it gets written. Any nil
// reference in a field means that statistic is not written.
type Outputs struct {
	Min        *point.Reference
	Max        *point.Reference
	Mean       *point.Reference
	StdDev     *point.Reference
	Range      *point.Reference
	Median     *point.Reference
	CV         *point.Reference
	Percentile map[float64]point.Reference
}

// Config is the Statistical block's configuration row.
type Config struct {
	ID            string
	Name          string
	Input         point.Reference
	WindowSize    int
	WindowType    WindowType
	DecimalPlaces int
	Outputs       Outputs
}

// Block is one configured Statistical processor instance.
type Block struct {
	Config
	store SampleStore
}

// New builds a Block from its configuration and sample store.
func New(cfg Config, store SampleStore) *Block { return &Block{Config: cfg, store: store} }

// Tick appends the current sample, and — once enough samples are
// available (immediately for Rolling, only on a full batch for
// Tumbling) — computes and writes the configured statistics. Tumbling
// windows clear their samples once a batch completes.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	item, ok, err := resolver.ResolveOne(ctx, b.Input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	raw, err := blockio.ParseFloat(item.Value)
	if err != nil {
		return nil
	}

	if err := b.store.Append(ctx, b.ID, window.Sample{Timestamp: now.Unix(), Value: raw}); err != nil {
		return err
	}

	samples, err := b.store.Recent(ctx, b.ID, b.WindowSize)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	if b.WindowType == Tumbling && len(samples) < b.WindowSize {
		return nil
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(values, nil)
	min, max := sorted[0], sorted[len(sorted)-1]
	median := linInterpQuantile(0.5, sorted)

	var stddev float64
	if len(values) >= 2 {
		_, stddev = stat.MeanStdDev(values, nil)
	}

	cv := 0.0
	if math.Abs(mean) > 1e-10 {
		cv = math.Abs(stddev/mean) * 100
	}

	if err := b.write(ctx, writer, b.Outputs.Min, min); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.Max, max); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.Mean, mean); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.StdDev, stddev); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.Range, max-min); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.Median, median); err != nil {
		return err
	}
	if err := b.write(ctx, writer, b.Outputs.CV, cv); err != nil {
		return err
	}
	for p, ref := range b.Outputs.Percentile {
		v := linInterpQuantile(p, sorted)
		if err := writer.WriteOutput(ctx, ref, fmt.Sprintf("%.*f", b.DecimalPlaces, v)); err != nil {
			return err
		}
	}

	if b.WindowType == Tumbling {
		return b.store.Clear(ctx, b.ID)
	}
	return nil
}

func (b *Block) write(ctx context.Context, writer Writer, ref *point.Reference, v float64) error {
	if ref == nil {
		return nil
	}
	return writer.WriteOutput(ctx, *ref, fmt.Sprintf("%.*f", b.DecimalPlaces, v))
}

// linInterpQuantile returns the p-quantile (0 <= p <= 1) of a non-empty
// ascending slice by linear interpolation between the two closest ranks,
// at position p*(n-1); e.g. the median of 10,20,30,40 is 25.
func linInterpQuantile(p float64, sorted []float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[lo+1]-sorted[lo])
}
