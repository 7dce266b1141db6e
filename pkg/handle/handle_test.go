package handle

import (
	"testing"
)

type widgetState struct {
	name  string
	count int
}

func TestNewAndGet(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{name: "counter", count: 3})
	defer s.Release()

	got := s.Get()
	if got.name != "counter" || got.count != 3 {
		t.Errorf("Get() = %+v, want {counter 3}", *got)
	}
}

func TestCloneSharesPayload(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{count: 1})
	c := s.Clone()

	if s.Get() != c.Get() {
		t.Error("clone should share the original's payload")
	}
	if got := reg.strongCount(s.index); got != 2 {
		t.Errorf("strong count after clone = %d, want 2", got)
	}

	c.Get().count = 7
	if got := s.Get().count; got != 7 {
		t.Errorf("mutation through clone not visible through original: count = %d, want 7", got)
	}

	c.Release()
	if got := reg.strongCount(s.index); got != 1 {
		t.Errorf("strong count after releasing clone = %d, want 1", got)
	}
	s.Release()
}

func TestStrongCountTracksLiveHandles(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{})

	handles := []*Strong[widgetState]{s}
	for range 4 {
		handles = append(handles, s.Clone())
	}
	if got := reg.strongCount(s.index); got != 5 {
		t.Fatalf("strong count = %d, want 5", got)
	}

	for i, h := range handles {
		h.Release()
		want := uint64(len(handles) - i - 1)
		if i < len(handles)-1 {
			if got := reg.strongCount(s.index); got != want {
				t.Errorf("strong count after %d releases = %d, want %d", i+1, got, want)
			}
		}
	}
	if got := reg.LiveCount(); got != 0 {
		t.Errorf("LiveCount() after all releases = %d, want 0", got)
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	s := NewIn(NewRegistry(), widgetState{})
	s.Release()
	mustPanicContract(t, s.Release)
}

func TestUseAfterReleasePanics(t *testing.T) {
	s := NewIn(NewRegistry(), widgetState{})
	w := s.Downgrade()
	s.Release()

	mustPanicContract(t, func() { s.Get() })
	mustPanicContract(t, func() { s.Clone() })
	mustPanicContract(t, func() { s.Downgrade() })

	// The weak sibling stays safe to hold and query.
	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade() after owner release should fail")
	}
}

func TestDowngradeDoesNotTouchCount(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{})
	defer s.Release()

	for range 3 {
		s.Downgrade()
	}
	if got := reg.strongCount(s.index); got != 1 {
		t.Errorf("strong count after downgrades = %d, want 1", got)
	}
}

func TestUpgradeWhileAlive(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{name: "alive"})
	w := s.Downgrade()

	u, ok := w.Upgrade()
	if !ok {
		t.Fatal("Upgrade() of a live handle should succeed")
	}
	if got := u.Get().name; got != "alive" {
		t.Errorf("upgraded payload name = %q, want %q", got, "alive")
	}
	if got := reg.strongCount(s.index); got != 2 {
		t.Errorf("strong count after upgrade = %d, want 2", got)
	}

	// The upgraded handle keeps the payload alive on its own.
	s.Release()
	if got := u.Get().name; got != "alive" {
		t.Errorf("payload after original release = %q, want %q", got, "alive")
	}
	u.Release()

	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade() after the last owner released should fail")
	}
}

func TestWeakPermanenceOfFailure(t *testing.T) {
	reg := NewRegistry()
	s := NewIn(reg, widgetState{name: "first"})
	w := s.Downgrade()
	s.Release()

	if _, ok := w.Upgrade(); ok {
		t.Fatal("Upgrade() after death should fail")
	}

	// Reoccupy the same index several times; the stale weak never recovers.
	for i := range 3 {
		next := NewIn(reg, widgetState{name: "later"})
		if next.index != s.index {
			t.Fatalf("expected index %d to be recycled, got %d", s.index, next.index)
		}
		if _, ok := w.Upgrade(); ok {
			t.Errorf("Upgrade() of stale weak succeeded after reuse %d", i)
		}
		next.Release()
	}
}

func TestIndexReuseYieldsNewValueOnly(t *testing.T) {
	reg := NewRegistry()

	a := NewIn(reg, widgetState{name: "a"})
	index, generation := a.index, a.generation
	weakA := a.Downgrade()
	a.Release()

	b := NewIn(reg, widgetState{name: "b"})
	if b.index != index {
		t.Fatalf("b.index = %d, want recycled %d", b.index, index)
	}
	if b.generation != generation+1 {
		t.Fatalf("b.generation = %d, want %d", b.generation, generation+1)
	}

	if _, ok := weakA.Upgrade(); ok {
		t.Error("stale weak for a must not upgrade into b's slot")
	}

	weakB := b.Downgrade()
	u, ok := weakB.Upgrade()
	if !ok {
		t.Fatal("weak for b should upgrade while b is alive")
	}
	if got := u.Get().name; got != "b" {
		t.Errorf("upgraded payload = %q, want %q (never the previous occupant)", got, "b")
	}
	u.Release()
	b.Release()
}

func TestZeroWeakNeverUpgrades(t *testing.T) {
	var w Weak[widgetState]
	if _, ok := w.Upgrade(); ok {
		t.Error("zero Weak should never upgrade")
	}
}

func TestDefaultRegistryConstructors(t *testing.T) {
	before := Default().LiveCount()

	s := New(widgetState{name: "global"})
	if got := Default().LiveCount(); got != before+1 {
		t.Errorf("LiveCount() = %d, want %d", got, before+1)
	}

	w := s.Downgrade()
	u, ok := w.Upgrade()
	if !ok {
		t.Fatal("weak from default-registry handle should upgrade")
	}
	u.Release()
	s.Release()

	if got := Default().LiveCount(); got != before {
		t.Errorf("LiveCount() after cleanup = %d, want %d", got, before)
	}
}
