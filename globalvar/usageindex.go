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

package globalvar

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsoniclabs/memproc/internal/memerr"
	"github.com/redis/go-redis/v9"
)

const usageTTL = 5 * time.Minute

// emptySentinel is stored as the sole member of a usage set when a variable
// has no usages, so the set (and therefore the key) survives. A member that
// is SADDed then SREMed would leave Redis to delete the now-empty set along
// with it, defeating the cache for zero-usage variables.
const emptySentinel = "\x00empty"

func usageKey(name string) string {
	return fmt.Sprintf("UsageIndex:GlobalVariable:%s", name)
}

// Usage identifies one row that references a Global Variable.
type Usage struct {
	Table string
	ID    string
}

func (u Usage) member() string { return u.Table + ":" + u.ID }

// usageIndex is the Redis-backed cache in front of a full-table-scan
// rebuild, rebuilt fine-grained per variable name on miss.
type usageIndex struct {
	kv *redis.Client
}

// find returns the cached usage set for name, or (nil, false) on a miss.
func (u *usageIndex) find(ctx context.Context, name string) ([]Usage, bool, error) {
	exists, err := u.kv.Exists(ctx, usageKey(name)).Result()
	if err != nil {
		return nil, false, memerr.TransientStore("EXISTS usage index", err)
	}
	if exists == 0 {
		return nil, false, nil
	}
	members, err := u.kv.SMembers(ctx, usageKey(name)).Result()
	if err != nil {
		return nil, false, memerr.TransientStore("SMEMBERS usage index", err)
	}
	out := make([]Usage, 0, len(members))
	for _, m := range members {
		if m == emptySentinel {
			continue
		}
		out = append(out, parseMember(m))
	}
	return out, true, nil
}

// rebuild replaces the cache entry for name with usages, each with a fresh
// TTL. An empty usages set still creates the key (via emptySentinel) so
// subsequent finds are a cache hit rather than re-triggering a scan.
func (u *usageIndex) rebuild(ctx context.Context, name string, usages []Usage) error {
	key := usageKey(name)
	pipe := u.kv.TxPipeline()
	pipe.Del(ctx, key)
	if len(usages) == 0 {
		pipe.SAdd(ctx, key, emptySentinel)
	}
	for _, us := range usages {
		pipe.SAdd(ctx, key, us.member())
	}
	pipe.Expire(ctx, key, usageTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return memerr.TransientStore("rebuild usage index", err)
	}
	return nil
}

// invalidate drops the cache entry for name. Invalidation failures are
// advisory: the rename that triggered them has already committed.
func (u *usageIndex) invalidate(ctx context.Context, name string) error {
	if err := u.kv.Del(ctx, usageKey(name)).Err(); err != nil {
		return memerr.TransientStore("invalidate usage index", err)
	}
	return nil
}

func parseMember(m string) Usage {
	for i := 0; i < len(m); i++ {
		if m[i] == ':' {
			return Usage{Table: m[:i], ID: m[i+1:]}
		}
	}
	return Usage{Table: m}
}
