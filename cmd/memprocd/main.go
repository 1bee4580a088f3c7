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

// Command memprocd is the Memory Processor core's process entrypoint: it
// connects to the relational store and the fast KV store, bootstraps the
// current/next-year history partitions, and launches one restartable
// processor task per block type under the Startup Supervisor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/0xsoniclabs/memproc/memconfig"
	"github.com/0xsoniclabs/memproc/scheduler"
	"github.com/0xsoniclabs/memproc/supervisor"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

// App is memprocd's single-command CLI surface: there is nothing to
// choose between, so Action runs the daemon directly rather than
// dispatching to a Commands list, unlike the teacher's multi-command
// util-db binary.
var App = &cli.App{
	Name:  "memprocd",
	Usage: "run the Memory Processor core against a configured database and Redis instance",
	Flags: memconfig.Flags,
	Action: func(c *cli.Context) error {
		return run(c.Context, c)
	},
}

func main() {
	if err := App.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Context) error {
	cfg, err := memconfig.FromContext(c)
	if err != nil {
		return err
	}
	log := memlog.New(cfg.LogLevel, "memprocd")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Open("sqlite3", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PoolMaxConns)
	db.SetMaxIdleConns(cfg.PoolMinConns)
	db.SetConnMaxIdleTime(cfg.PoolIdleTimeout)

	kv := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer kv.Close()

	probe := func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.CommandTimeout)
		defer cancel()
		return db.PingContext(probeCtx)
	}

	if err := scheduler.WaitForReady(ctx, probe, cfg.ProbeAttempts, cfg.ProbeInterval, cfg.LogLevel); err != nil {
		return fmt.Errorf("startup readiness probe failed: %w", err)
	}

	if err := bootstrapSchema(ctx, db); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	if err := bootstrapHistoryPartitions(ctx, db, time.Now().UTC()); err != nil {
		return fmt.Errorf("bootstrap history partitions: %w", err)
	}

	application := newApp(cfg, db, kv)
	processors, err := application.buildProcessors(ctx)
	if err != nil {
		return fmt.Errorf("build processors: %w", err)
	}

	log.Infof("starting %d processor tasks", len(processors))
	sup := supervisor.New(cfg.LogLevel)
	noopProbe := func(context.Context) error { return nil }
	if err := sup.Start(ctx, noopProbe, processors); err != nil {
		return fmt.Errorf("start processors: %w", err)
	}

	<-ctx.Done()
	log.Infof("shutdown signal received, draining")
	return nil
}
