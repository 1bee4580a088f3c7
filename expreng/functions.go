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

package expreng

import "github.com/expr-lang/expr"

const maxExpressionLength = 2000

// truthy follows the engine's numeric truthiness convention: any magnitude
// greater than 1e-10 counts as true.
func truthy(v float64) bool {
	return v > 1e-10 || v < -1e-10
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// functions returns the fixed function set available to every expression:
// avg/min/max (variadic, n>=1), clamp/3, scale/5, deadband/3, iff/3.
func functions() []expr.Option {
	return []expr.Option{
		expr.Function("avg", func(params ...any) (any, error) {
			if len(params) < 1 {
				return nil, errArity("avg", "n>=1", len(params))
			}
			sum := 0.0
			for _, p := range params {
				sum += toFloat(p)
			}
			return sum / float64(len(params)), nil
		}),
		expr.Function("min", func(params ...any) (any, error) {
			if len(params) < 1 {
				return nil, errArity("min", "n>=1", len(params))
			}
			m := toFloat(params[0])
			for _, p := range params[1:] {
				if f := toFloat(p); f < m {
					m = f
				}
			}
			return m, nil
		}),
		expr.Function("max", func(params ...any) (any, error) {
			if len(params) < 1 {
				return nil, errArity("max", "n>=1", len(params))
			}
			m := toFloat(params[0])
			for _, p := range params[1:] {
				if f := toFloat(p); f > m {
					m = f
				}
			}
			return m, nil
		}),
		expr.Function("clamp", func(params ...any) (any, error) {
			if len(params) != 3 {
				return nil, errArity("clamp", "3", len(params))
			}
			x, lo, hi := toFloat(params[0]), toFloat(params[1]), toFloat(params[2])
			if x < lo {
				return lo, nil
			}
			if x > hi {
				return hi, nil
			}
			return x, nil
		}),
		expr.Function("scale", func(params ...any) (any, error) {
			if len(params) != 5 {
				return nil, errArity("scale", "5", len(params))
			}
			x, inLo, inHi, outLo, outHi := toFloat(params[0]), toFloat(params[1]), toFloat(params[2]), toFloat(params[3]), toFloat(params[4])
			if inHi == inLo {
				return outLo, nil
			}
			t := (x - inLo) / (inHi - inLo)
			return outLo + t*(outHi-outLo), nil
		}),
		expr.Function("deadband", func(params ...any) (any, error) {
			if len(params) != 3 {
				return nil, errArity("deadband", "3", len(params))
			}
			x, center, band := toFloat(params[0]), toFloat(params[1]), toFloat(params[2])
			if abs(x-center) <= band/2 {
				return center, nil
			}
			return x, nil
		}),
		expr.Function("iff", func(params ...any) (any, error) {
			if len(params) != 3 {
				return nil, errArity("iff", "3", len(params))
			}
			if truthy(toFloat(params[0])) {
				return params[1], nil
			}
			return params[2], nil
		}),
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
