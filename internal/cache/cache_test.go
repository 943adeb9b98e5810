package cache

import (
	"testing"

	"github.com/vk/paramgraph/internal/uncertain"
)

func TestEmptyCacheHitRateIsZeroNotNaN(t *testing.T) {
	c := New()
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.HitRate != 0 {
		t.Fatalf("got %+v, want zero stats", stats)
	}
}

func TestGetMissThenPutThenHit(t *testing.T) {
	c := New()
	key := Key{SubIndex: 0, Parameter: "density", Method: "power_law"}

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put(key, uncertain.Of(300, 10))

	v, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if v.Mean != 300 || v.Stddev != 10 {
		t.Fatalf("got %+v", v)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.HitRate != 0.5 {
		t.Fatalf("got %+v, want 1 hit 1 miss rate 0.5", stats)
	}
}

func TestDistinctSubIndexesDoNotCollide(t *testing.T) {
	c := New()
	c.Put(Key{SubIndex: 0, Parameter: "density", Method: "m"}, uncertain.Of(1, 0))
	c.Put(Key{SubIndex: 1, Parameter: "density", Method: "m"}, uncertain.Of(2, 0))

	v0, _ := c.Get(Key{SubIndex: 0, Parameter: "density", Method: "m"})
	v1, _ := c.Get(Key{SubIndex: 1, Parameter: "density", Method: "m"})
	if v0.Mean != 1 || v1.Mean != 2 {
		t.Fatalf("got v0=%+v v1=%+v", v0, v1)
	}
}

func TestMethodForReportsProvenance(t *testing.T) {
	c := New()
	c.Put(Key{SubIndex: 2, Parameter: "density", Method: "power_law"}, uncertain.Of(1, 0))

	method, ok := c.MethodFor(2, "density")
	if !ok || method != "power_law" {
		t.Fatalf("MethodFor = %q, %v, want power_law true", method, ok)
	}

	if _, ok := c.MethodFor(2, "unrelated"); ok {
		t.Fatal("expected no provenance for unrelated parameter")
	}
}

func TestClearResetsValuesAndStats(t *testing.T) {
	c := New()
	key := Key{SubIndex: 0, Parameter: "density", Method: "m"}
	c.Put(key, uncertain.Of(1, 0))
	c.Get(key)
	c.Get(Key{SubIndex: 9, Parameter: "missing", Method: "m"})

	c.Clear()

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss after clear")
	}
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 1 {
		t.Fatalf("got %+v after clear+one miss", stats)
	}
	if _, ok := c.MethodFor(0, "density"); ok {
		t.Fatal("expected provenance cleared")
	}
}
