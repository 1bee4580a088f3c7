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

// Package valuestore implements the Value Store Gateway: batched get/set
// against the fast KV store (Redis), duration-bounded write overrides, and
// history append to the relational store. It is the only component that
// touches the `FinalItem:`/`RawItem:`/`PIDTuningState:` key namespace.
package valuestore

import "fmt"

func finalKey(id string) string     { return fmt.Sprintf("FinalItem:%s", id) }
func rawKey(id string) string       { return fmt.Sprintf("RawItem:%s", id) }
func overrideKey(id string) string  { return fmt.Sprintf("RawOverride:%s", id) }
func tuningKey(id string) string    { return fmt.Sprintf("PIDTuningState:%s", id) }
func globalVarKey(id string) string { return fmt.Sprintf("GlobalVariable:%s", id) }
