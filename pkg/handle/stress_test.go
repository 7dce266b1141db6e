package handle

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestConcurrentUpgradeStress hammers one shared Weak from several readers
// while a writer churns clones of the owning handle. The owner stays alive
// for the whole run, so every upgrade must succeed and at quiescence the
// strong count must match the single surviving handle exactly.
func TestConcurrentUpgradeStress(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{name: "shared", count: 42})
	w := s.Downgrade()

	const (
		readers    = 8
		iterations = 2000
	)

	var misses atomic.Int64
	var badReads atomic.Int64
	var wg sync.WaitGroup

	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				u, ok := w.Upgrade()
				if !ok {
					misses.Add(1)
					continue
				}
				if u.Get().count != 42 {
					badReads.Add(1)
				}
				u.Release()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		clones := make([]*Strong[widgetState], 0, 4)
		for i := range iterations {
			clones = append(clones, s.Clone())
			if i%4 == 3 {
				for _, c := range clones {
					c.Release()
				}
				clones = clones[:0]
			}
		}
		for _, c := range clones {
			c.Release()
		}
	}()

	wg.Wait()

	if got := misses.Load(); got != 0 {
		t.Errorf("upgrade misses = %d, want 0 while the owner stays alive", got)
	}
	if got := badReads.Load(); got != 0 {
		t.Errorf("bad payload reads = %d, want 0", got)
	}
	if got := reg.strongCount(s.index); got != 1 {
		t.Errorf("quiescent strong count = %d, want 1", got)
	}
	s.Release()
	if got := reg.LiveCount(); got != 0 {
		t.Errorf("LiveCount() after final release = %d, want 0", got)
	}
}

// TestUpgradeRaceWithFinalRelease releases the last owner while readers are
// mid-upgrade. Each attempt either yields the live payload or fails cleanly;
// the slot retires exactly once.
func TestUpgradeRaceWithFinalRelease(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{name: "dying", count: 7})
	w := s.Downgrade()
	index := s.index

	const readers = 8

	var badReads atomic.Int64
	var start, wg sync.WaitGroup
	start.Add(1)

	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			for range 500 {
				u, ok := w.Upgrade()
				if !ok {
					continue
				}
				if u.Get().count != 7 {
					badReads.Add(1)
				}
				u.Release()
			}
		}()
	}

	start.Done()
	s.Release()
	wg.Wait()

	if got := badReads.Load(); got != 0 {
		t.Errorf("bad payload reads = %d, want 0", got)
	}
	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade() after the owner died should fail")
	}
	if got := reg.generationOf(index); got != 1 {
		t.Errorf("generation after the race = %d, want exactly 1 bump", got)
	}
	if got := reg.LiveCount(); got != 0 {
		t.Errorf("LiveCount() at quiescence = %d, want 0", got)
	}
}

// TestConcurrentCloneRelease has each goroutine clone and fully release its
// own chain; the original handle must be the only reference left.
func TestConcurrentCloneRelease(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				c := s.Clone()
				c2 := c.Clone()
				c2.Release()
				c.Release()
			}
		}()
	}
	wg.Wait()

	if got := reg.strongCount(s.index); got != 1 {
		t.Errorf("quiescent strong count = %d, want 1", got)
	}
	s.Release()
}

func BenchmarkUpgradeRelease(b *testing.B) {
	s := NewIn(NewRegistry(), widgetState{count: 1})
	defer s.Release()
	w := s.Downgrade()

	for b.Loop() {
		u, ok := w.Upgrade()
		if !ok {
			b.Fatal("upgrade failed")
		}
		u.Release()
	}
}

// BenchmarkUpgradeContention measures the known throughput ceiling of the
// single registry lock: every parallel upgrade serializes on it.
func BenchmarkUpgradeContention(b *testing.B) {
	s := NewIn(NewRegistry(), widgetState{count: 1})
	defer s.Release()
	w := s.Downgrade()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			u, ok := w.Upgrade()
			if !ok {
				b.Fail()
				return
			}
			_ = u.Get().count
			u.Release()
		}
	})
}

func BenchmarkCloneRelease(b *testing.B) {
	s := NewIn(NewRegistry(), widgetState{})
	defer s.Release()

	for b.Loop() {
		s.Clone().Release()
	}
}

// BenchmarkRegisterRecycle exercises the dead-index reuse path: every
// iteration retires and reclaims the same slot.
func BenchmarkRegisterRecycle(b *testing.B) {
	reg := NewRegistry()

	for b.Loop() {
		NewIn(reg, widgetState{}).Release()
	}
}
