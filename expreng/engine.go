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

// Package expreng evaluates arithmetic/boolean expressions over a named
// environment plus the fixed function set of spec.md §4.4, with a
// compiled-form cache keyed by the sha256 hash of the source text.
package expreng

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func errArity(name, want string, got int) error {
	return errors.Newf("%s: expected %s arguments, got %d", name, want, got)
}

// Hash returns the sha256 hex digest of an expression's source text; it is
// the cache key the compiled-form cache and block rows carry.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Validate rejects an empty expression, one over maxExpressionLength, a
// syntax error, or a fixed-function call with the wrong arity (the fixed
// functions are variadic to the compiler, so arity is enforced by running
// the compiled program once against a zero-valued environment).
func Validate(source string, paramNames []string) error {
	if len(source) == 0 {
		return errors.New("expression must not be empty")
	}
	if len(source) > maxExpressionLength {
		return errors.Newf("expression exceeds %d characters", maxExpressionLength)
	}
	env := make(map[string]any, len(paramNames))
	for _, p := range paramNames {
		env[p] = 0.0
	}
	prog, err := expr.Compile(source, append(functions(), expr.Env(env))...)
	if err != nil {
		return errors.Wrap(err, "invalid expression")
	}
	if _, err := expr.Run(prog, env); err != nil {
		return errors.Wrap(err, "invalid expression")
	}
	return nil
}

// Compiled is a cached compiled-form delegate plus the hash of the source
// it was built from.
type Compiled struct {
	Hash    string
	Program *vm.Program
}

// Compile compiles source against an environment shaped by env (only the
// keys matter; expr infers float64 for all of them here since every
// Memory Processor variable is numeric).
func Compile(source string, env map[string]any) (*Compiled, error) {
	if err := Validate(source, keysOf(env)); err != nil {
		return nil, err
	}
	prog, err := expr.Compile(source, append(functions(), expr.Env(env))...)
	if err != nil {
		return nil, errors.Wrap(err, "compile expression")
	}
	return &Compiled{Hash: Hash(source), Program: prog}, nil
}

// Run evaluates a compiled program against env and converts the result to
// float64, per the engine's numeric convention.
func Run(c *Compiled, env map[string]any) (float64, error) {
	out, err := expr.Run(c.Program, env)
	if err != nil {
		return 0, errors.Wrap(err, "evaluate expression")
	}
	return toFloat(out), nil
}

// Test is the direct, uncached convenience form: compile and evaluate once.
func Test(source string, env map[string]any) (float64, error) {
	c, err := Compile(source, env)
	if err != nil {
		return 0, err
	}
	return Run(c, env)
}

func keysOf(env map[string]any) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	return keys
}

// Truthy exposes the engine's numeric truthiness convention
// (|v| > 1e-10) to callers outside this package, e.g. If-block branch
// selection.
func Truthy(v float64) bool { return truthy(v) }
