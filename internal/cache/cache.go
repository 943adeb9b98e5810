// Package cache provides the ephemeral, run-scoped computed-value store
// consulted by the orchestrator while it walks a pathway.
//
// # Purpose
//
// The cache exists to short-circuit redundant recomputation of sub-record
// parameters shared across pathways within a single Engine.ExecuteAll call.
// Its scope is deliberately narrow: only parameters the graph builder has
// explicitly marked cacheable are ever stored, and every entry is discarded
// at the end of the call that created it (spec §4.4). It is never persisted
// or shared across records.
//
// # Concurrency model
//
// Following the teacher's inmemorystore package, state lives in sync.Map
// keyed by a flattened string key rather than a mutex-guarded map: the key
// space (sub-record index x parameter x method) is bounded and known ahead
// of time per pathway walk, and reads/writes to independent keys should not
// contend. Hit/miss counters use atomic.Uint64 so Stats() never blocks a
// concurrent Get/Put, even though the orchestrator itself walks pathways
// sequentially per spec §5 — a future concurrent orchestrator can reuse this
// cache unmodified.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/paramgraph/internal/uncertain"
)

// Key identifies one cacheable computation.
type Key struct {
	SubIndex  int
	Parameter string
	Method    string
}

func (k Key) flatten() string {
	return fmt.Sprintf("%d\x00%s\x00%s", k.SubIndex, k.Parameter, k.Method)
}

// Stats reports the cache's hit/miss counters as of the call to Stats.
type Stats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Cache is a keyed computed-value store for one enumeration run. The zero
// value is not usable; construct with New.
type Cache struct {
	values     sync.Map // Key.flatten() -> uncertain.Value
	provenance sync.Map // "subIndex\x00parameter" -> method id that populated it
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// New returns an empty Cache, ready for one Engine.ExecuteAll call.
func New() *Cache {
	return &Cache{}
}

// Get returns the cached value for key, if present, recording a hit or a
// miss as a side effect. A miss is recorded even when the caller goes on to
// populate the cache immediately afterward with Put — the miss reflects
// that the value was not available yet at the time of the lookup.
func (c *Cache) Get(key Key) (uncertain.Value, bool) {
	raw, ok := c.values.Load(key.flatten())
	if !ok {
		c.misses.Add(1)
		return uncertain.Value{}, false
	}
	c.hits.Add(1)
	return raw.(uncertain.Value), true
}

// Put records the value that populated key, along with which method
// produced it, for later provenance queries.
func (c *Cache) Put(key Key, value uncertain.Value) {
	c.values.Store(key.flatten(), value)
	c.provenance.Store(provenanceKey(key.SubIndex, key.Parameter), key.Method)
}

// MethodFor returns the method identifier that populated the cached slot for
// (subIndex, parameter), for diagnostic traces.
func (c *Cache) MethodFor(subIndex int, parameter string) (string, bool) {
	raw, ok := c.provenance.Load(provenanceKey(subIndex, parameter))
	if !ok {
		return "", false
	}
	return raw.(string), true
}

// Clear discards all entries and resets counters. Engine.ExecuteAll does not
// call it; it starts every call with a new Cache instead.
func (c *Cache) Clear() {
	c.values.Range(func(k, _ any) bool {
		c.values.Delete(k)
		return true
	})
	c.provenance.Range(func(k, _ any) bool {
		c.provenance.Delete(k)
		return true
	})
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the current hit/miss counters and derived hit rate. HitRate
// is exactly 0, not NaN, when there have been no lookups at all.
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, HitRate: rate}
}

func provenanceKey(subIndex int, parameter string) string {
	return fmt.Sprintf("%d\x00%s", subIndex, parameter)
}
