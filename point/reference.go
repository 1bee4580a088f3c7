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

package point

import (
	"encoding/json"
	"strings"
)

// RefKind tags which backing store a Reference resolves against. This is
// the only place that knows the "P:"/"GV:" prefix format; blocks consume
// the tagged variant and never branch on the prefix themselves.
type RefKind int

const (
	// RefPoint addresses a Point by UUID.
	RefPoint RefKind = iota
	// RefGlobalVariable addresses a Global Variable by name.
	RefGlobalVariable
)

const (
	pointPrefix    = "P:"
	variablePrefix = "GV:"
)

// Reference is a parsed source reference: a kind tag plus the bare
// identifier (a Point UUID or a Global Variable name).
type Reference struct {
	Kind RefKind
	ID   string
}

// IsPoint reports whether ref addresses a Point.
func (r Reference) IsPoint() bool { return r.Kind == RefPoint }

// IsGlobalVariable reports whether ref addresses a Global Variable.
func (r Reference) IsGlobalVariable() bool { return r.Kind == RefGlobalVariable }

// ParseReference parses a stored reference string. A bare string (no
// recognized prefix) is treated as a Point UUID for backward compatibility.
func ParseReference(s string) Reference {
	switch {
	case strings.HasPrefix(s, pointPrefix):
		return Reference{Kind: RefPoint, ID: strings.TrimPrefix(s, pointPrefix)}
	case strings.HasPrefix(s, variablePrefix):
		return Reference{Kind: RefGlobalVariable, ID: strings.TrimPrefix(s, variablePrefix)}
	default:
		return Reference{Kind: RefPoint, ID: s}
	}
}

// Format renders the canonical prefixed form of ref.
func Format(ref Reference) string {
	switch ref.Kind {
	case RefGlobalVariable:
		return variablePrefix + ref.ID
	default:
		return pointPrefix + ref.ID
	}
}

// aliasPrefix marks a Global Variable reference embedded inside a
// multi-value column (a Formula alias, an If branch, a group/input list
// serialized to JSON), as opposed to a single-reference column's plain
// "GV:<name>" form. Only Global Variables are renameable, so only their
// embedded form needs a token the rename transaction can find and replace
// without disturbing any other text sharing the column.
const aliasPrefix = "@GV:"

// FormatEmbedded renders ref the way it is stored inside a multi-value
// column: Global Variable references get the "@GV:<name>" alias token,
// Point references keep the plain "P:<uuid>" form (Points are never
// renamed, so they need no distinguishing token).
func FormatEmbedded(ref Reference) string {
	if ref.Kind == RefGlobalVariable {
		return aliasPrefix + ref.ID
	}
	return Format(ref)
}

// ParseEmbedded is the inverse of FormatEmbedded.
func ParseEmbedded(s string) Reference {
	if strings.HasPrefix(s, aliasPrefix) {
		return Reference{Kind: RefGlobalVariable, ID: strings.TrimPrefix(s, aliasPrefix)}
	}
	return ParseReference(s)
}

// MarshalJSON encodes a Reference as its embedded string form, so a
// Reference nested inside a struct that is JSON-serialized wholesale (e.g.
// a Comparison group's input list) lands in storage as a plain,
// rename-transaction-searchable token rather than an opaque {Kind,ID}
// object.
func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatEmbedded(r))
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseEmbedded(s)
	return nil
}
