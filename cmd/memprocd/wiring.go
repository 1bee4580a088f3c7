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

package main

import (
	"context"
	"time"

	"github.com/0xsoniclabs/memproc/blocks/average"
	"github.com/0xsoniclabs/memproc/blocks/blockio"
	"github.com/0xsoniclabs/memproc/blocks/comparison"
	"github.com/0xsoniclabs/memproc/blocks/deadband"
	"github.com/0xsoniclabs/memproc/blocks/formula"
	"github.com/0xsoniclabs/memproc/blocks/ifblock"
	"github.com/0xsoniclabs/memproc/blocks/minmax"
	"github.com/0xsoniclabs/memproc/blocks/pidtune"
	"github.com/0xsoniclabs/memproc/blocks/rateofchange"
	"github.com/0xsoniclabs/memproc/blocks/statistical"
	"github.com/0xsoniclabs/memproc/blocks/timeout"
	"github.com/0xsoniclabs/memproc/blocks/totalizer"
	"github.com/0xsoniclabs/memproc/blocks/writeaction"
	"github.com/0xsoniclabs/memproc/expreng"
	"github.com/0xsoniclabs/memproc/globalvar"
	"github.com/0xsoniclabs/memproc/memconfig"
	"github.com/0xsoniclabs/memproc/process"
	"github.com/0xsoniclabs/memproc/repo"
	"github.com/0xsoniclabs/memproc/supervisor"
	"github.com/0xsoniclabs/memproc/valuestore"
	"github.com/0xsoniclabs/memproc/window"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// app bundles every shared collaborator the twelve block-type processors
// are built from, wired once at boot.
type app struct {
	cfg       *memconfig.Config
	db        *sqlx.DB
	kv        *redis.Client
	gateway   *valuestore.Gateway
	gvService *globalvar.Service
	resolver  *blockio.Resolver
	writer    *blockio.OutputWriter
	exprCache *expreng.Cache
}

// globalVariableReferenceTables enumerates every block table that may hold
// a "GV:<name>" or "@GV:<name>" reference, for the rename transaction and
// usage index (spec.md §4.17).
func globalVariableReferenceTables() []globalvar.ReferenceTable {
	return []globalvar.ReferenceTable{
		{Table: timeout.Table, PlainRefColumns: []string{"input_ref", "output_ref"}},
		{Table: comparison.Table, PlainRefColumns: []string{"output_ref"}, AliasColumns: []string{"groups_json"}},
		{Table: totalizer.Table, PlainRefColumns: []string{"input_ref", "output_ref"}},
		{Table: formula.Table, PlainRefColumns: []string{"output_ref"}, AliasColumns: []string{"aliases_json"}},
		{Table: ifblock.Table, PlainRefColumns: []string{"output_ref"}, AliasColumns: []string{"branches_json"}},
		{Table: average.Table, PlainRefColumns: []string{"output_ref"}, AliasColumns: []string{"inputs_json"}},
		{Table: deadband.Table, PlainRefColumns: []string{"input_ref", "output_ref"}},
		{Table: rateofchange.Table, PlainRefColumns: []string{"input_ref", "output_ref", "alarm_output_ref"}},
		{Table: minmax.Table, PlainRefColumns: []string{"output_ref", "index_output_ref"}, AliasColumns: []string{"inputs_json"}},
		{Table: statistical.Table, PlainRefColumns: []string{"input_ref"}, AliasColumns: []string{"outputs_json"}},
		{Table: writeaction.Table, PlainRefColumns: []string{"output_ref", "source_item_ref"}},
		{Table: pidtune.Table, PlainRefColumns: []string{"pv_ref", "relay_output_ref"}},
	}
}

// newApp wires every shared collaborator from an already-connected DB and
// Redis client.
func newApp(cfg *memconfig.Config, db *sqlx.DB, kv *redis.Client) *app {
	gateway := valuestore.New(kv, db, cfg.LogLevel)
	gvRepo := repo.NewSQLGlobalVariableRepository(db)
	gvService := globalvar.New(db, gvRepo, kv, globalVariableReferenceTables(), cfg.LogLevel)
	resolver := blockio.NewResolver(gateway, gvService)
	writer := blockio.NewOutputWriter(gvService, gateway, gateway)
	return &app{
		cfg:       cfg,
		db:        db,
		kv:        kv,
		gateway:   gateway,
		gvService: gvService,
		resolver:  resolver,
		writer:    writer,
		exprCache: expreng.NewCache(),
	}
}

// buildProcessors loads every block type's configuration once and returns
// one supervisor.Processor per block type, plus the two background sample
// pruning tasks, Statistical and RateOfChange (spec.md §4.14).
func (a *app) buildProcessors(ctx context.Context) ([]supervisor.Processor, error) {
	var procs []supervisor.Processor

	timeoutLoop, err := a.buildTimeout(ctx)
	if err != nil {
		return nil, err
	}
	comparisonLoop, err := a.buildComparison(ctx)
	if err != nil {
		return nil, err
	}
	totalizerLoop, err := a.buildTotalizer(ctx)
	if err != nil {
		return nil, err
	}
	formulaLoop, err := a.buildFormula(ctx)
	if err != nil {
		return nil, err
	}
	ifLoop, err := a.buildIfBlock(ctx)
	if err != nil {
		return nil, err
	}
	averageLoop, err := a.buildAverage(ctx)
	if err != nil {
		return nil, err
	}
	deadbandLoop, err := a.buildDeadband(ctx)
	if err != nil {
		return nil, err
	}
	rocStore := window.New(a.db, rateofchange.SamplesTable)
	rocLoop, err := a.buildRateOfChange(ctx, rocStore)
	if err != nil {
		return nil, err
	}
	minmaxLoop, err := a.buildMinMax(ctx)
	if err != nil {
		return nil, err
	}
	statStore := window.New(a.db, statistical.SamplesTable)
	statLoop, err := a.buildStatistical(ctx, statStore)
	if err != nil {
		return nil, err
	}
	writeActionLoop, err := a.buildWriteAction(ctx)
	if err != nil {
		return nil, err
	}
	pidLoop, err := a.buildPIDTune(ctx)
	if err != nil {
		return nil, err
	}

	procs = append(procs, timeoutLoop, comparisonLoop, totalizerLoop, formulaLoop, ifLoop,
		averageLoop, deadbandLoop, rocLoop, minmaxLoop, statLoop, writeActionLoop, pidLoop)

	procs = append(procs,
		process.NewBackgroundTask("StatisticalSamplePruner", window.TickerInterval, a.cfg.LogLevel, func(ctx context.Context) error {
			return a.pruneStatisticalSamples(ctx, statStore)
		}),
		process.NewBackgroundTask("RateOfChangeSamplePruner", window.TickerInterval, a.cfg.LogLevel, func(ctx context.Context) error {
			return a.pruneRateOfChangeSamples(ctx, rocStore)
		}),
	)

	return procs, nil
}

func (a *app) buildTimeout(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[timeout.Row](a.db, timeout.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg := row.ToConfig(id)
		block := timeout.New(cfg)
		units = append(units, process.NewUnit(id, cfg.Interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Timeout", a.cfg.LogLevel, units), nil
}

func (a *app) buildComparison(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[comparison.Row](a.db, comparison.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := comparison.New(cfg)
		units = append(units, process.NewUnit(id, row.IntervalDuration(), row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Comparison", a.cfg.LogLevel, units), nil
}

func (a *app) buildTotalizer(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[totalizer.Row](a.db, totalizer.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg := row.ToConfig(id)
		block := totalizer.New(cfg)
		interval := time.Duration(cfg.IntervalSeconds * float64(time.Second))
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Totalizer", a.cfg.LogLevel, units), nil
}

func (a *app) buildFormula(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[formula.Row](a.db, formula.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := formula.New(cfg, a.cfg.LogLevel)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, a.resolver, a.exprCache, a.writer)
		}))
	}
	return process.NewTypeLoop("Formula", a.cfg.LogLevel, units), nil
}

func (a *app) buildIfBlock(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[ifblock.Row](a.db, ifblock.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := ifblock.New(cfg)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("If", a.cfg.LogLevel, units), nil
}

func (a *app) buildAverage(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[average.Row](a.db, average.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := average.New(cfg)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Average", a.cfg.LogLevel, units), nil
}

func (a *app) buildDeadband(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[deadband.Row](a.db, deadband.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg := row.ToConfig(id)
		block := deadband.New(cfg)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Deadband", a.cfg.LogLevel, units), nil
}

func (a *app) buildRateOfChange(ctx context.Context, store *window.Store) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[rateofchange.Row](a.db, rateofchange.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg := row.ToConfig(id)
		block := rateofchange.New(cfg, store)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("RateOfChange", a.cfg.LogLevel, units), nil
}

func (a *app) buildMinMax(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[minmax.Row](a.db, minmax.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := minmax.New(cfg)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("MinMax", a.cfg.LogLevel, units), nil
}

func (a *app) buildStatistical(ctx context.Context, store *window.Store) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[statistical.Row](a.db, statistical.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg, err := row.ToConfig(id)
		if err != nil {
			return nil, err
		}
		block := statistical.New(cfg, store)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("Statistical", a.cfg.LogLevel, units), nil
}

func (a *app) buildWriteAction(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[writeaction.Row](a.db, writeaction.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		cfg := row.ToConfig(id)
		block := writeaction.New(cfg)
		block.ExecutionCount = row.PersistedExecutionCnt
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, a.resolver, a.gateway)
		}))
	}
	return process.NewTypeLoop("WriteAction", a.cfg.LogLevel, units), nil
}

func (a *app) buildPIDTune(ctx context.Context) (*process.TypeLoop, error) {
	repository := repo.NewSQLBlockConfigRepository[pidtune.Row](a.db, pidtune.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]*process.Unit, 0, len(rows))
	for id, row := range rows {
		// No cascade registry is built here: a cascaded parent PID's
		// active-loop flag lives outside this core's scope (field-bus
		// adapters own loop execution), so IsParentActive is always
		// false, matching a non-cascaded deployment.
		cfg := row.ToConfig(id, func() bool { return false })
		block := pidtune.New(cfg, a.gateway)
		interval := time.Duration(row.IntervalSeconds) * time.Second
		units = append(units, process.NewUnit(id, interval, row.IsDisabled, func(ctx context.Context) error {
			return block.Tick(ctx, time.Now().UTC(), a.resolver, a.writer)
		}))
	}
	return process.NewTypeLoop("PIDTune", a.cfg.LogLevel, units), nil
}

func (a *app) pruneStatisticalSamples(ctx context.Context, store *window.Store) error {
	repository := repo.NewSQLBlockConfigRepository[statistical.Row](a.db, statistical.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(rows))
	sizes := map[string]int{}
	for id, row := range rows {
		ids = append(ids, id)
		sizes[id] = row.WindowSize
	}
	return store.PruneAllOlderThanBound(ctx, ids, func(blockID string) int { return sizes[blockID] })
}

func (a *app) pruneRateOfChangeSamples(ctx context.Context, store *window.Store) error {
	repository := repo.NewSQLBlockConfigRepository[rateofchange.Row](a.db, rateofchange.Table)
	rows, err := repository.ListWithIDs(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(rows))
	sizes := map[string]int{}
	for id, row := range rows {
		ids = append(ids, id)
		sizes[id] = row.WindowSize
	}
	return store.PruneAllOlderThanBound(ctx, ids, func(blockID string) int { return sizes[blockID] })
}
