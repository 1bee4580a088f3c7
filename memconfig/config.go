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

// Package memconfig builds the process-wide Config from CLI flags, the
// way the teacher's utility layer turns a *cli.Context into a typed
// configuration struct consumed by every subsystem at boot.
package memconfig

import (
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/urfave/cli/v2"
)

// Config is the fully resolved runtime configuration for one memprocd
// process.
type Config struct {
	DatabaseDSN     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LogLevel        string
	CommandTimeout  time.Duration
	ProbeAttempts   int
	ProbeInterval   time.Duration
	PoolMinConns    int
	PoolMaxConns    int
	PoolIdleTimeout time.Duration
}

// Flags is the full CLI surface for memprocd, shared by every command
// that needs a Config.
var Flags = []cli.Flag{
	&cli.StringFlag{Name: "database-dsn", Usage: "relational store data source name", Required: true, EnvVars: []string{"MEMPROC_DATABASE_DSN"}},
	&cli.StringFlag{Name: "redis-addr", Usage: "fast KV store address", Value: "127.0.0.1:6379", EnvVars: []string{"MEMPROC_REDIS_ADDR"}},
	&cli.StringFlag{Name: "redis-password", Usage: "fast KV store password", EnvVars: []string{"MEMPROC_REDIS_PASSWORD"}},
	&cli.IntFlag{Name: "redis-db", Usage: "fast KV store logical database index", Value: 0},
	&cli.StringFlag{Name: "log-level", Usage: "CRITICAL, ERROR, WARNING, NOTICE, INFO, or DEBUG", Value: "INFO", EnvVars: []string{"MEMPROC_LOG_LEVEL"}},
	&cli.DurationFlag{Name: "command-timeout", Usage: "per-operation database/KV timeout", Value: 30 * time.Second},
	&cli.IntFlag{Name: "probe-attempts", Usage: "startup DB-readiness probe attempts", Value: 30},
	&cli.DurationFlag{Name: "probe-interval", Usage: "startup DB-readiness probe spacing", Value: 2 * time.Second},
	&cli.IntFlag{Name: "pool-min-conns", Value: 5},
	&cli.IntFlag{Name: "pool-max-conns", Value: 50},
	&cli.DurationFlag{Name: "pool-idle-timeout", Value: 300 * time.Second},
}

// FromContext builds a Config from a populated *cli.Context, validating
// the fields that cannot be caught by the flag parser itself.
func FromContext(c *cli.Context) (*Config, error) {
	cfg := &Config{
		DatabaseDSN:     c.String("database-dsn"),
		RedisAddr:       c.String("redis-addr"),
		RedisPassword:   c.String("redis-password"),
		RedisDB:         c.Int("redis-db"),
		LogLevel:        c.String("log-level"),
		CommandTimeout:  c.Duration("command-timeout"),
		ProbeAttempts:   c.Int("probe-attempts"),
		ProbeInterval:   c.Duration("probe-interval"),
		PoolMinConns:    c.Int("pool-min-conns"),
		PoolMaxConns:    c.Int("pool-max-conns"),
		PoolIdleTimeout: c.Duration("pool-idle-timeout"),
	}
	if cfg.DatabaseDSN == "" {
		return nil, memerr.Configuration("database-dsn is required")
	}
	if cfg.PoolMaxConns < cfg.PoolMinConns {
		return nil, memerr.Configuration("pool-max-conns (%d) must be >= pool-min-conns (%d)", cfg.PoolMaxConns, cfg.PoolMinConns)
	}
	if cfg.ProbeAttempts <= 0 {
		return nil, memerr.Configuration("probe-attempts must be positive")
	}
	return cfg, nil
}
