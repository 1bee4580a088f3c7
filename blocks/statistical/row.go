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

package statistical

import (
	"encoding/json"
	"strconv"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Statistical block
// configuration; SamplesTable is its sample-ring child table.
const (
	Table        = "statistical_blocks"
	SamplesTable = "statistical_samples"
)

// Row mirrors the statistical_blocks table. Outputs is stored as a JSON
// object mapping each statistic name to its output reference, plus a
// percentile map keyed by the requested percentile.
type Row struct {
	Name            string `db:"name"`
	IsDisabled      bool   `db:"is_disabled"`
	IntervalSeconds int64  `db:"interval_seconds"`
	InputRef        string `db:"input_ref"`
	WindowSize      int    `db:"window_size"`
	WindowType      int    `db:"window_type"`
	DecimalPlaces   int    `db:"decimal_places"`
	OutputsJSON     string `db:"outputs_json"`
}

type outputsRow struct {
	Min        string             `json:"min,omitempty"`
	Max        string             `json:"max,omitempty"`
	Mean       string             `json:"mean,omitempty"`
	StdDev     string             `json:"stddev,omitempty"`
	Range      string             `json:"range,omitempty"`
	Median     string             `json:"median,omitempty"`
	CV         string             `json:"cv,omitempty"`
	Percentile map[string]string  `json:"percentile,omitempty"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var or outputsRow
	if r.OutputsJSON != "" {
		if err := json.Unmarshal([]byte(r.OutputsJSON), &or); err != nil {
			return Config{}, memerr.Configuration("statistical %s: malformed outputs_json: %v", id, err)
		}
	}
	outputs := Outputs{
		Min:    optionalRef(or.Min),
		Max:    optionalRef(or.Max),
		Mean:   optionalRef(or.Mean),
		StdDev: optionalRef(or.StdDev),
		Range:  optionalRef(or.Range),
		Median: optionalRef(or.Median),
		CV:     optionalRef(or.CV),
	}
	if len(or.Percentile) > 0 {
		outputs.Percentile = map[float64]point.Reference{}
		for k, v := range or.Percentile {
			p, err := strconv.ParseFloat(k, 64)
			if err != nil {
				return Config{}, memerr.Configuration("statistical %s: malformed percentile key %q: %v", id, k, err)
			}
			outputs.Percentile[p] = point.ParseEmbedded(v)
		}
	}
	return Config{
		ID:            id,
		Name:          r.Name,
		Input:         point.ParseReference(r.InputRef),
		WindowSize:    r.WindowSize,
		WindowType:    WindowType(r.WindowType),
		DecimalPlaces: r.DecimalPlaces,
		Outputs:       outputs,
	}, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	or := outputsRow{
		Min:    refString(cfg.Outputs.Min),
		Max:    refString(cfg.Outputs.Max),
		Mean:   refString(cfg.Outputs.Mean),
		StdDev: refString(cfg.Outputs.StdDev),
		Range:  refString(cfg.Outputs.Range),
		Median: refString(cfg.Outputs.Median),
		CV:     refString(cfg.Outputs.CV),
	}
	if len(cfg.Outputs.Percentile) > 0 {
		or.Percentile = map[string]string{}
		for p, ref := range cfg.Outputs.Percentile {
			or.Percentile[strconv.FormatFloat(p, 'g', -1, 64)] = point.FormatEmbedded(ref)
		}
	}
	buf, err := json.Marshal(or)
	if err != nil {
		return Row{}, memerr.Configuration("statistical %s: cannot marshal outputs: %v", cfg.ID, err)
	}
	return Row{
		Name:          cfg.Name,
		InputRef:      point.Format(cfg.Input),
		WindowSize:    cfg.WindowSize,
		WindowType:    int(cfg.WindowType),
		DecimalPlaces: cfg.DecimalPlaces,
		OutputsJSON:   string(buf),
	}, nil
}

func optionalRef(s string) *point.Reference {
	if s == "" {
		return nil
	}
	ref := point.ParseEmbedded(s)
	return &ref
}

func refString(ref *point.Reference) string {
	if ref == nil {
		return ""
	}
	return point.FormatEmbedded(*ref)
}
