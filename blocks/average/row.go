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

package average

import (
	"encoding/json"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Average block configuration.
const Table = "average_blocks"

// Row mirrors the average_blocks table. Inputs and Weights are stored as
// parallel JSON arrays.
type Row struct {
	Name             string  `db:"name"`
	IsDisabled       bool    `db:"is_disabled"`
	IntervalSeconds  int64   `db:"interval_seconds"`
	InputsJSON       string  `db:"inputs_json"`
	WeightsJSON      string  `db:"weights_json"`
	IgnoreStale      bool    `db:"ignore_stale"`
	StaleTimeout     int64   `db:"stale_timeout"`
	MinimumInputs    int     `db:"minimum_inputs"`
	OutlierMethod    int     `db:"outlier_method"`
	OutlierThreshold float64 `db:"outlier_threshold"`
	DecimalPlaces    int     `db:"decimal_places"`
	OutputRef        string  `db:"output_ref"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var refStrs []string
	if r.InputsJSON != "" {
		if err := json.Unmarshal([]byte(r.InputsJSON), &refStrs); err != nil {
			return Config{}, memerr.Configuration("average %s: malformed inputs_json: %v", id, err)
		}
	}
	inputs := make([]point.Reference, len(refStrs))
	for i, s := range refStrs {
		inputs[i] = point.ParseEmbedded(s)
	}
	var weights []float64
	if r.WeightsJSON != "" {
		if err := json.Unmarshal([]byte(r.WeightsJSON), &weights); err != nil {
			return Config{}, memerr.Configuration("average %s: malformed weights_json: %v", id, err)
		}
	}
	return Config{
		ID:               id,
		Name:             r.Name,
		Inputs:           inputs,
		Weights:          weights,
		IgnoreStale:      r.IgnoreStale,
		StaleTimeout:     r.StaleTimeout,
		MinimumInputs:    r.MinimumInputs,
		OutlierMethod:    OutlierMethod(r.OutlierMethod),
		OutlierThreshold: r.OutlierThreshold,
		DecimalPlaces:    r.DecimalPlaces,
		Output:           point.ParseReference(r.OutputRef),
	}, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	refStrs := make([]string, len(cfg.Inputs))
	for i, ref := range cfg.Inputs {
		refStrs[i] = point.FormatEmbedded(ref)
	}
	inputsBuf, err := json.Marshal(refStrs)
	if err != nil {
		return Row{}, memerr.Configuration("average %s: cannot marshal inputs: %v", cfg.ID, err)
	}
	weightsBuf, err := json.Marshal(cfg.Weights)
	if err != nil {
		return Row{}, memerr.Configuration("average %s: cannot marshal weights: %v", cfg.ID, err)
	}
	return Row{
		Name:             cfg.Name,
		InputsJSON:       string(inputsBuf),
		WeightsJSON:      string(weightsBuf),
		IgnoreStale:      cfg.IgnoreStale,
		StaleTimeout:     cfg.StaleTimeout,
		MinimumInputs:    cfg.MinimumInputs,
		OutlierMethod:    int(cfg.OutlierMethod),
		OutlierThreshold: cfg.OutlierThreshold,
		DecimalPlaces:    cfg.DecimalPlaces,
		OutputRef:        point.Format(cfg.Output),
	}, nil
}
