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

import "sync"

// Cache is a concurrent-safe uuid -> (hash, compiled) map. Blocks hold one
// compiled delegate per block id; invalidation is a single remove. A
// failed Eval evicts the stale entry and falls back to a fresh compile on
// the next call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Compiled
}

// NewCache builds an empty compiled-form cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Compiled)}
}

// Get returns the cached compiled form for blockID if its hash still
// matches source; otherwise it compiles, caches and returns a fresh one.
func (c *Cache) Get(blockID, source string, env map[string]any) (*Compiled, error) {
	hash := Hash(source)

	c.mu.RLock()
	if cur, ok := c.entries[blockID]; ok && cur.Hash == hash {
		c.mu.RUnlock()
		return cur, nil
	}
	c.mu.RUnlock()

	compiled, err := Compile(source, env)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[blockID] = compiled
	c.mu.Unlock()
	return compiled, nil
}

// Evict removes blockID's cached compiled form, forcing a fresh compile on
// its next Get. Called after a failed Eval or an explicit invalidation.
func (c *Cache) Evict(blockID string) {
	c.mu.Lock()
	delete(c.entries, blockID)
	c.mu.Unlock()
}

// Eval looks up (or compiles) the delegate for blockID and source, runs it
// against env, and evicts the entry on failure so the next call recompiles
// from scratch.
func (c *Cache) Eval(blockID, source string, env map[string]any) (float64, error) {
	compiled, err := c.Get(blockID, source, env)
	if err != nil {
		c.Evict(blockID)
		return 0, err
	}
	out, err := Run(compiled, env)
	if err != nil {
		c.Evict(blockID)
		return 0, err
	}
	return out, nil
}
