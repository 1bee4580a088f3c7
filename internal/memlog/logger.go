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

// Package memlog wraps go-logging into the named, level-filtered loggers
// used throughout the memory-processor core. One instance is created per
// subsystem at boot, but they all share the single process-wide backend
// go-logging requires; New folds each subsystem's level into that shared
// backend instead of replacing it.
package memlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/op/go-logging"
)

// Logger is the interface every processor, gateway and service depends on.
type Logger = logging.Logger

var formatter = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
)

var (
	backendMu sync.Mutex
	backend   logging.LeveledBackend
)

// New builds a named logger at the given level. An unrecognized level
// string falls back to INFO rather than failing boot. The underlying
// go-logging backend is a process-wide singleton: replacing it on every
// call would make only the most recently constructed subsystem's level
// filtering take effect, so New instead lazily creates it once and sets
// this module's level on it from then on.
func New(level string, module string) *Logger {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}

	backendMu.Lock()
	if backend == nil {
		raw := logging.NewLogBackend(os.Stderr, "", 0)
		formatted := logging.NewBackendFormatter(raw, formatter)
		backend = logging.AddModuleLevel(formatted)
		logging.SetBackend(backend)
	}
	backend.SetLevel(lvl, module)
	backendMu.Unlock()

	return logging.MustGetLogger(module)
}

// Fields renders a set of key/value pairs for a single structured log line,
// e.g. log.Warningf("tick failed: %s", memlog.Fields{"block": id, "err": err}).
type Fields map[string]any

func (f Fields) String() string {
	s := ""
	for k, v := range f {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, v)
	}
	return s
}
