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

// Package average implements the Average block: weighted mean of N
// inputs with optional staleness filtering and single-pass outlier
// elimination.
package average

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/point"
	"gonum.org/v1/gonum/stat"
)

// OutlierMethod selects how single-pass outlier elimination runs before
// the weighted mean is computed.
type OutlierMethod int

const (
	NoOutlierDetection OutlierMethod = iota
	IQR
	ZScore
	MAD
)

// Writer is the output side of an Average block.
type Writer interface {
	WriteOutput(ctx context.Context, ref point.Reference, value string) error
}

// Config is the Average block's configuration row.
type Config struct {
	ID               string
	Name             string
	Inputs           []point.Reference
	Weights          []float64 // nil or len(Inputs); nil means equal weights
	IgnoreStale      bool
	StaleTimeout     int64
	MinimumInputs    int
	OutlierMethod    OutlierMethod
	OutlierThreshold float64
	DecimalPlaces    int
	Output           point.Reference
}

// Block is one configured Average processor instance.
type Block struct {
	Config
}

// New builds a Block from its configuration.
func New(cfg Config) *Block { return &Block{Config: cfg} }

// Tick resolves every input, drops stale or unparsable ones, aborts the
// tick (no write) if survivors fall below MinimumInputs, eliminates
// outliers in a single pass, and writes the weighted mean.
func (b *Block) Tick(ctx context.Context, now time.Time, resolver *blockio.Resolver, writer Writer) error {
	var vals, weights []float64

	for i, ref := range b.Inputs {
		item, ok, err := resolver.ResolveOne(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if b.IgnoreStale && item.Age(now) > b.StaleTimeout {
			continue
		}
		v, err := blockio.ParseFloat(item.Value)
		if err != nil {
			continue
		}
		w := 1.0
		if b.Weights != nil && i < len(b.Weights) {
			w = b.Weights[i]
		}
		vals = append(vals, v)
		weights = append(weights, w)
	}

	if len(vals) < b.MinimumInputs {
		return nil
	}

	fv, fw := eliminateOutliers(vals, weights, b.OutlierMethod, b.OutlierThreshold)
	if len(fv) == 0 {
		return nil
	}

	mean := weightedMean(fv, fw)
	return writer.WriteOutput(ctx, b.Output, fmt.Sprintf("%.*f", b.DecimalPlaces, mean))
}

func weightedMean(vals, weights []float64) float64 {
	var sumW, sumWV float64
	for i, v := range vals {
		sumW += weights[i]
		sumWV += v * weights[i]
	}
	if sumW == 0 {
		return 0
	}
	return sumWV / sumW
}

// eliminateOutliers runs exactly one pass: it computes the method's
// bounds once from the full sample and keeps whatever survives, per the
// documented single-pass decision (no iteration to a fixed point).
func eliminateOutliers(vals, weights []float64, method OutlierMethod, threshold float64) ([]float64, []float64) {
	if method == NoOutlierDetection || len(vals) < 3 {
		return vals, weights
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	keep := make([]bool, len(vals))
	for i := range keep {
		keep[i] = true
	}

	switch method {
	case IQR:
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		iqr := q3 - q1
		lo, hi := q1-threshold*iqr, q3+threshold*iqr
		for i, v := range vals {
			keep[i] = v >= lo && v <= hi
		}
	case ZScore:
		mean, std := stat.MeanStdDev(vals, nil)
		if std == 0 {
			break
		}
		for i, v := range vals {
			keep[i] = math.Abs(v-mean)/std <= threshold
		}
	case MAD:
		median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		devs := make([]float64, len(vals))
		for i, v := range vals {
			devs[i] = math.Abs(v - median)
		}
		sortedDevs := append([]float64(nil), devs...)
		sort.Float64s(sortedDevs)
		mad := stat.Quantile(0.5, stat.Empirical, sortedDevs, nil)
		if mad == 0 {
			break
		}
		for i, v := range vals {
			keep[i] = math.Abs(v-median)/mad <= threshold
		}
	}

	var fv, fw []float64
	for i, k := range keep {
		if k {
			fv = append(fv, vals[i])
			fw = append(fw, weights[i])
		}
	}
	return fv, fw
}
