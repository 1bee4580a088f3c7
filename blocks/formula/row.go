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

package formula

import (
	"encoding/json"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/point"
)

// Table is the relational-store table name for Formula block configuration.
const Table = "formula_blocks"

// Row mirrors the formula_blocks table. Aliases is stored as a JSON array
// of {name, ref} pairs.
type Row struct {
	Name            string `db:"name"`
	IsDisabled      bool   `db:"is_disabled"`
	IntervalSeconds int64  `db:"interval_seconds"`
	Expression      string `db:"expression"`
	DecimalPlaces   int    `db:"decimal_places"`
	AliasesJSON     string `db:"aliases_json"`
	OutputRef       string `db:"output_ref"`
}

type aliasRow struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// ToConfig combines a relational row with its block id into a Config.
func (r Row) ToConfig(id string) (Config, error) {
	var rows []aliasRow
	if r.AliasesJSON != "" {
		if err := json.Unmarshal([]byte(r.AliasesJSON), &rows); err != nil {
			return Config{}, memerr.Configuration("formula %s: malformed aliases_json: %v", id, err)
		}
	}
	aliases := make([]Alias, len(rows))
	for i, a := range rows {
		aliases[i] = Alias{Name: a.Name, Ref: point.ParseEmbedded(a.Ref)}
	}
	return Config{
		ID:            id,
		Name:          r.Name,
		Expression:    r.Expression,
		DecimalPlaces: r.DecimalPlaces,
		Aliases:       aliases,
		Output:        point.ParseReference(r.OutputRef),
	}, nil
}

// FromConfig is the inverse of ToConfig.
func FromConfig(cfg Config) (Row, error) {
	rows := make([]aliasRow, len(cfg.Aliases))
	for i, a := range cfg.Aliases {
		rows[i] = aliasRow{Name: a.Name, Ref: point.FormatEmbedded(a.Ref)}
	}
	buf, err := json.Marshal(rows)
	if err != nil {
		return Row{}, memerr.Configuration("formula %s: cannot marshal aliases: %v", cfg.ID, err)
	}
	return Row{
		Name:          cfg.Name,
		Expression:    cfg.Expression,
		DecimalPlaces: cfg.DecimalPlaces,
		AliasesJSON:   string(buf),
		OutputRef:     point.Format(cfg.Output),
	}, nil
}
