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

package valuestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/0xsoniclabs/memproc/internal/memlog"
	"github.com/0xsoniclabs/memproc/point"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Gateway batches reads/writes against the fast KV store and appends raw
// writes to the month-partitioned history table in the relational store.
type Gateway struct {
	kv  *redis.Client
	db  *sqlx.DB
	log *memlog.Logger
}

// New builds a Gateway over an already-connected Redis client and database
// handle.
func New(kv *redis.Client, db *sqlx.DB, logLevel string) *Gateway {
	return &Gateway{kv: kv, db: db, log: memlog.New(logLevel, "ValueStoreGateway")}
}

// historyRow mirrors the partitioned point_history table.
type historyRow struct {
	PointID string `db:"point_id"`
	Value   string `db:"value"`
	Time    int64  `db:"time"`
}

// GetFinal returns the Final item for each found id; missing ids are
// simply absent from the result, per the batching contract.
func (g *Gateway) GetFinal(ctx context.Context, ids []string) (map[string]point.Item, error) {
	return g.batchGet(ctx, ids, finalKey)
}

// GetRaw returns the Raw item for each found id. An id with a live
// duration-bounded override (see WriteOrAdd) reports the override value;
// once the override's TTL lapses, the durable raw value underneath it
// resumes without any further write.
func (g *Gateway) GetRaw(ctx context.Context, ids []string) (map[string]point.Item, error) {
	if len(ids) == 0 {
		return map[string]point.Item{}, nil
	}

	overrides, err := g.batchGet(ctx, ids, overrideKey)
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := overrides[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	durable, err := g.batchGet(ctx, remaining, rawKey)
	if err != nil {
		return nil, err
	}

	out := make(map[string]point.Item, len(ids))
	for id, item := range durable {
		out[id] = item
	}
	for id, item := range overrides {
		out[id] = item
	}
	return out, nil
}

// GetGlobalVariables returns the current {value, time} for each found
// Global Variable id.
func (g *Gateway) GetGlobalVariables(ctx context.Context, ids []string) (map[string]point.Item, error) {
	return g.batchGet(ctx, ids, globalVarKey)
}

// SetGlobalVariable writes a Global Variable's current value.
func (g *Gateway) SetGlobalVariable(ctx context.Context, id, value string) error {
	item := point.Item{Value: value, Time: time.Now().UTC().Unix()}
	buf, err := json.Marshal(item)
	if err != nil {
		return memerr.TransientStore("marshal global variable", err)
	}
	if err := g.kv.Set(ctx, globalVarKey(id), buf, 0).Err(); err != nil {
		return memerr.TransientStore("SET global variable", err)
	}
	return nil
}

func (g *Gateway) batchGet(ctx context.Context, ids []string, keyFn func(string) string) (map[string]point.Item, error) {
	if len(ids) == 0 {
		return map[string]point.Item{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyFn(id)
	}

	raw, err := g.kv.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, memerr.TransientStore("MGET", err)
	}

	out := make(map[string]point.Item, len(ids))
	for i, v := range raw {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var item point.Item
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			g.log.Warningf("corrupt item at %s: %v", keys[i], err)
			continue
		}
		out[ids[i]] = item
	}
	return out, nil
}

// WriteOrAdd sets the raw entry for id. If at is nil, the current time is
// used. If duration is non-nil, the write is held in a separate override
// key with a TTL, leaving the durable raw key untouched underneath it; once
// the TTL lapses, Redis drops only the override key and the prior durable
// Raw value resumes on the next GetRaw with no further write. A duration-less
// write replaces the durable raw key directly and clears any live override,
// since an unconditional write must take precedence over a stale one.
func (g *Gateway) WriteOrAdd(ctx context.Context, id string, value string, at *time.Time, duration *time.Duration) (bool, error) {
	ts := time.Now().UTC()
	if at != nil {
		ts = *at
	}
	item := point.Item{Value: value, Time: ts.Unix()}
	buf, err := json.Marshal(item)
	if err != nil {
		return false, memerr.TransientStore("marshal item", err)
	}

	if duration != nil {
		if err := g.kv.Set(ctx, overrideKey(id), buf, *duration).Err(); err != nil {
			return false, memerr.TransientStore("SET override with TTL", err)
		}
	} else {
		if err := g.kv.Del(ctx, overrideKey(id)).Err(); err != nil {
			g.log.Warningf("clear override failed for %s: %v", id, err)
		}
		if err := g.kv.Set(ctx, rawKey(id), buf, 0).Err(); err != nil {
			return false, memerr.TransientStore("SET", err)
		}
	}

	if err := g.appendHistory(ctx, id, value, ts.Unix()); err != nil {
		g.log.Warningf("history append failed for %s: %v", id, err)
	}
	return true, nil
}

func (g *Gateway) appendHistory(ctx context.Context, pointID, value string, ts int64) error {
	if g.db == nil {
		return nil
	}
	table := historyTableFor(ts)
	_, err := g.db.ExecContext(ctx,
		g.db.Rebind(`INSERT INTO `+table+` (point_id, value, time) VALUES (?, ?, ?)`),
		pointID, value, ts)
	return err
}

// historyTableFor names the month partition owning a Unix-seconds
// timestamp, e.g. point_history_2026_07.
func historyTableFor(unixSeconds int64) string {
	t := time.Unix(unixSeconds, 0).UTC()
	return t.Format("point_history_2006_01")
}

// SetTuningState persists the transient PID auto-tune side-channel state.
func (g *Gateway) SetTuningState(ctx context.Context, pidMemoryID string, state any) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return memerr.TransientStore("marshal tuning state", err)
	}
	if err := g.kv.Set(ctx, tuningKey(pidMemoryID), buf, 0).Err(); err != nil {
		return memerr.TransientStore("SET tuning state", err)
	}
	return nil
}

// GetTuningState loads the transient tuning state into dst. It reports
// ok=false, nil error when no state is present.
func (g *Gateway) GetTuningState(ctx context.Context, pidMemoryID string, dst any) (bool, error) {
	raw, err := g.kv.Get(ctx, tuningKey(pidMemoryID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, memerr.TransientStore("GET tuning state", err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, memerr.TransientStore("unmarshal tuning state", err)
	}
	return true, nil
}

// DeleteTuningState removes the transient tuning state side-channel.
func (g *Gateway) DeleteTuningState(ctx context.Context, pidMemoryID string) error {
	if err := g.kv.Del(ctx, tuningKey(pidMemoryID)).Err(); err != nil {
		return memerr.TransientStore("DEL tuning state", err)
	}
	return nil
}
