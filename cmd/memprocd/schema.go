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

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/jmoiron/sqlx"
)

// bootstrapSchema idempotently creates every table the core reads and
// writes, following the same CREATE TABLE IF NOT EXISTS style as
// bootstrapHistoryPartitions. There is no migration framework: schema
// changes are additive ALTER-free table definitions, matching the
// teacher's inline DDL strings (profile/parallelisation/profiledb.go).
func bootstrapSchema(ctx context.Context, db *sqlx.DB) error {
	for _, ddl := range schemaStatements {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return memerr.TransientStore("bootstrap schema", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS points (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		raw_low REAL,
		raw_high REAL,
		scaled_low REAL,
		scaled_high REAL
	);`,
	`CREATE TABLE IF NOT EXISTS global_variables (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS timeout_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		input_ref TEXT NOT NULL,
		output_ref TEXT NOT NULL,
		timeout_seconds INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS comparison_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		groups_json TEXT NOT NULL,
		outer_op INTEGER NOT NULL,
		invert INTEGER NOT NULL DEFAULT 0,
		output_ref TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS totalizer_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		input_ref TEXT NOT NULL,
		output_ref TEXT NOT NULL,
		mode INTEGER NOT NULL,
		interval_seconds REAL NOT NULL,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		reset_on_overflow INTEGER NOT NULL DEFAULT 0,
		overflow_threshold REAL NOT NULL DEFAULT 0,
		scheduled_reset_enabled INTEGER NOT NULL DEFAULT 0,
		schedule_cron TEXT NOT NULL DEFAULT '',
		manual_reset_enabled INTEGER NOT NULL DEFAULT 0,
		accumulated_value REAL NOT NULL DEFAULT 0,
		has_baseline INTEGER NOT NULL DEFAULT 0,
		last_input_value REAL NOT NULL DEFAULT 0,
		last_event_state INTEGER NOT NULL DEFAULT 0,
		last_reset_time INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS formula_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		expression TEXT NOT NULL,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		aliases_json TEXT NOT NULL,
		output_ref TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS if_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		branches_json TEXT NOT NULL,
		default_value TEXT NOT NULL DEFAULT '',
		output_ref TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS average_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		inputs_json TEXT NOT NULL,
		weights_json TEXT NOT NULL,
		ignore_stale INTEGER NOT NULL DEFAULT 0,
		stale_timeout INTEGER NOT NULL DEFAULT 0,
		minimum_inputs INTEGER NOT NULL DEFAULT 1,
		outlier_method INTEGER NOT NULL DEFAULT 0,
		outlier_threshold REAL NOT NULL DEFAULT 0,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		output_ref TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS deadband_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		input_ref TEXT NOT NULL,
		output_ref TEXT NOT NULL,
		mode INTEGER NOT NULL,
		deadband_absolute REAL NOT NULL DEFAULT 0,
		deadband_percent REAL NOT NULL DEFAULT 0,
		use_percent INTEGER NOT NULL DEFAULT 0,
		input_min REAL NOT NULL DEFAULT 0,
		input_max REAL NOT NULL DEFAULT 0,
		stability_time_ms INTEGER NOT NULL DEFAULT 0,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		last_output_value REAL,
		last_input_value REAL,
		last_change_time INTEGER,
		pending_digital_state INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS rateofchange_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		input_ref TEXT NOT NULL,
		output_ref TEXT NOT NULL,
		alarm_output_ref TEXT NOT NULL DEFAULT '',
		window_size INTEGER NOT NULL,
		method INTEGER NOT NULL,
		alpha REAL NOT NULL DEFAULT 0,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		high_threshold REAL NOT NULL DEFAULT 0,
		high_hysteresis REAL NOT NULL DEFAULT 0,
		low_threshold REAL NOT NULL DEFAULT 0,
		low_hysteresis REAL NOT NULL DEFAULT 0,
		last_input REAL,
		last_timestamp INTEGER,
		last_smoothed_rate REAL,
		alarm_state INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS rateofchange_samples (
		block_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_rateofchange_samples_block ON rateofchange_samples (block_id, timestamp);`,
	`CREATE TABLE IF NOT EXISTS minmax_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		inputs_json TEXT NOT NULL,
		select_mode INTEGER NOT NULL,
		failover INTEGER NOT NULL DEFAULT 0,
		output_ref TEXT NOT NULL,
		index_output_ref TEXT,
		hold_duration_ms INTEGER NOT NULL DEFAULT 0,
		decimal_places INTEGER NOT NULL DEFAULT 0,
		last_selected_index INTEGER,
		last_selected_value REAL
	);`,
	`CREATE TABLE IF NOT EXISTS statistical_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		input_ref TEXT NOT NULL,
		window_size INTEGER NOT NULL,
		window_type INTEGER NOT NULL,
		outputs_json TEXT NOT NULL,
		current_batch_count INTEGER NOT NULL DEFAULT 0,
		last_reset_time INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS statistical_samples (
		block_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_statistical_samples_block ON statistical_samples (block_id, timestamp);`,
	`CREATE TABLE IF NOT EXISTS writeaction_blocks (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		output_ref TEXT NOT NULL,
		static INTEGER NOT NULL DEFAULT 1,
		static_value TEXT NOT NULL DEFAULT '',
		source_item_ref TEXT NOT NULL DEFAULT '',
		max_execution_count INTEGER,
		duration_seconds INTEGER,
		execution_count INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS pidtune_sessions (
		block_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		interval_seconds INTEGER NOT NULL,
		setpoint REAL NOT NULL,
		output_min REAL NOT NULL,
		output_max REAL NOT NULL,
		relay_amplitude_pct REAL NOT NULL,
		hysteresis REAL NOT NULL DEFAULT 0,
		min_cycles INTEGER NOT NULL DEFAULT 0,
		max_cycles INTEGER NOT NULL DEFAULT 0,
		timeout_seconds INTEGER NOT NULL DEFAULT 0,
		safety_amplitude_limit REAL NOT NULL DEFAULT 0,
		pv_ref TEXT NOT NULL,
		relay_output_ref TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0
	);`,
}
