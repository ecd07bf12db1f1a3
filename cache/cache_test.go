package cache

import (
	"sync"
	"sync/atomic"
	"testing"
)

// identity keys shard by their low bits.
func identity(k uint64) uint64 { return k }

// fill returns a create func that stores v and counts calls.
func fill(v int, calls *int) func() int {
	return func() int {
		*calls++
		return v
	}
}

func TestNewSharded_Capacity(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{0, ShardCount},
		{1, ShardCount},
		{8, 8},
		{9, 16},
		{64, 64},
	}
	for _, tt := range tests {
		c := NewSharded[uint64, int](tt.capacity, identity)
		if got := c.Capacity(); got != tt.want {
			t.Errorf("NewSharded(%d).Capacity() = %d, want %d", tt.capacity, got, tt.want)
		}
	}
}

func TestShardedCache_HitsAndMisses(t *testing.T) {
	c := NewSharded[uint64, int](16, identity)
	calls := 0

	if v := c.GetOrCreate(1, fill(10, &calls)); v != 10 {
		t.Errorf("GetOrCreate(1) = %d, want 10", v)
	}
	if v := c.GetOrCreate(1, fill(99, &calls)); v != 10 {
		t.Errorf("GetOrCreate(1) cached = %d, want 10", v)
	}
	c.GetOrCreate(2, fill(20, &calls))

	if calls != 2 {
		t.Errorf("create called %d times, want 2", calls)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 2 {
		t.Errorf("Stats hits/misses = %d/%d, want 1/2", s.Hits, s.Misses)
	}
}

func TestShardedCache_EvictsLeastRecentlyUsed(t *testing.T) {
	// Keys that are multiples of ShardCount share shard 0, which holds 2.
	c := NewSharded[uint64, int](2*ShardCount, identity)
	a, b, d := uint64(0), uint64(ShardCount), uint64(2*ShardCount)
	calls := 0

	c.GetOrCreate(a, fill(1, &calls))
	c.GetOrCreate(b, fill(2, &calls))
	c.GetOrCreate(a, fill(1, &calls)) // a becomes most recent
	c.GetOrCreate(d, fill(3, &calls))
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want 1", ev)
	}

	calls = 0
	c.GetOrCreate(a, fill(1, &calls))
	if calls != 0 {
		t.Error("a should still be cached")
	}
	c.GetOrCreate(b, fill(2, &calls))
	if calls != 1 {
		t.Error("b should have been evicted")
	}
}

func TestShardedCache_GetOrCreate(t *testing.T) {
	c := NewSharded[uint64, int](16, identity)
	var calls atomic.Int32

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrCreate(7, func() int {
				calls.Add(1)
				return 49
			})
			if v != 49 {
				t.Errorf("GetOrCreate = %d, want 49", v)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("create called %d times, want 1", calls.Load())
	}
}

func TestShardedCache_Clear(t *testing.T) {
	c := NewSharded[uint64, int](16, identity)
	calls := 0
	for i := range uint64(10) {
		c.GetOrCreate(i, fill(int(i), &calls))
	}
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if v := c.GetOrCreate(3, fill(30, &calls)); v != 30 {
		t.Errorf("GetOrCreate after Clear = %d, want 30", v)
	}
	if s := c.Stats(); s.Misses != 11 {
		t.Errorf("Misses = %d, want 11 (counters survive Clear)", s.Misses)
	}
}

func TestFloat32Hasher(t *testing.T) {
	if Float32Hasher(1, 2, 3) != Float32Hasher(1, 2, 3) {
		t.Error("equal inputs must hash equally")
	}
	if Float32Hasher(1, 2, 3) == Float32Hasher(3, 2, 1) {
		t.Error("order should affect the hash")
	}
}

func TestStats_HitRate(t *testing.T) {
	if r := (Stats{}).HitRate(); r != 0 {
		t.Errorf("HitRate() = %v, want 0", r)
	}
	if r := (Stats{Hits: 3, Misses: 1}).HitRate(); r != 0.75 {
		t.Errorf("HitRate() = %v, want 0.75", r)
	}
}
