package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestShardedBasic(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache succeeded")
	}

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after overwrite = %d, want 2", c.Len())
	}
}

func TestShardedDelete(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get after delete succeeded")
	}
}

func TestShardedEviction(t *testing.T) {
	// Identity hasher with keys 0, 16, 32, ... keeps everything in shard 0.
	c := NewSharded[uint64, int](2, Uint64Hasher)

	c.Set(0, 0)
	c.Set(16, 1)
	c.Set(32, 2)

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", c.Len())
	}
	if _, ok := c.Get(0); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.Get(32); !ok {
		t.Error("newest entry evicted")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

func TestShardedLRUOrder(t *testing.T) {
	c := NewSharded[uint64, int](2, Uint64Hasher)

	c.Set(0, 0)
	c.Set(16, 1)
	// Touch 0 so 16 becomes the eviction candidate.
	if _, ok := c.Get(0); !ok {
		t.Fatal("Get(0) missed")
	}
	c.Set(32, 2)

	if _, ok := c.Get(0); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := c.Get(16); ok {
		t.Error("least recently used entry survived")
	}
}

func TestShardedGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	calls := 0
	create := func() int { calls++; return 42 }

	if v := c.GetOrCreate("k", create); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if v := c.GetOrCreate("k", create); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("create ran %d times, want 1", calls)
	}
}

func TestShardedRangeAndClear(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	c.Range(func(string, int) bool {
		seen++
		return true
	})
	if seen != 5 {
		t.Errorf("Range visited %d entries, want 5", seen)
	}

	seen = 0
	c.Range(func(string, int) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("early-stop Range visited %d entries, want 1", seen)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestShardedStats(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2/1", s.Hits, s.Misses)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("hit rate = %v", s.HitRate)
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[uint64, uint64](64, Uint64Hasher)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g uint64) {
			defer wg.Done()
			for i := uint64(0); i < 200; i++ {
				k := g*1000 + i
				c.Set(k, i)
				if v, ok := c.Get(k); ok && v != i {
					t.Errorf("Get(%d) = %d, want %d", k, v, i)
				}
			}
		}(uint64(g))
	}
	wg.Wait()
}

func TestLRUList(t *testing.T) {
	l := newLRUList[int]()
	if l.Len() != 0 {
		t.Fatalf("fresh list Len() = %d", l.Len())
	}
	if _, ok := l.RemoveOldest(); ok {
		t.Error("RemoveOldest on empty list succeeded")
	}

	l.PushFront(1)
	n2 := l.PushFront(2)
	l.PushFront(3)

	if k, ok := l.RemoveOldest(); !ok || k != 1 {
		t.Errorf("RemoveOldest = %d, %v, want 1", k, ok)
	}

	l.MoveToFront(n2)
	// Order is now 2, 3; oldest is 3.
	if k, _ := l.RemoveOldest(); k != 3 {
		t.Errorf("RemoveOldest after MoveToFront = %d, want 3", k)
	}

	l.Remove(n2)
	if l.Len() != 0 {
		t.Errorf("Len() = %d after removing all", l.Len())
	}
}
