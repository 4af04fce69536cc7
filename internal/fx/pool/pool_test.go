package pool

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

type testPayload struct {
	Tag Handle
}

func newTestPool(t *testing.T, capacity int) *Pool[testPayload] {
	t.Helper()
	p, err := New[testPayload](capacity)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", capacity, err)
	}
	return p
}

// allocTagged allocates n handles and stamps each payload with its own handle
func allocTagged(t *testing.T, p *Pool[testPayload], n int) []Handle {
	t.Helper()
	out := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		h := p.Allocate()
		if h == NoHandle {
			t.Fatalf("Allocate #%d returned NoHandle", i)
		}
		p.Payload(h).Tag = h
		out = append(out, h)
	}
	return out
}

func liveOrder(p *Pool[testPayload]) []Handle {
	out := make([]Handle, p.ActiveCount())
	for i := range out {
		out[i] = p.HandleAt(i)
	}
	return out
}

func TestNewRejectsBadCapacity(t *testing.T) {
	for _, c := range []int{0, -3} {
		if _, err := New[testPayload](c); !errors.Is(err, ErrCapacity) {
			t.Errorf("New(%d): expected ErrCapacity, got %v", c, err)
		}
	}
}

func TestAllocateOrderAndExhaustion(t *testing.T) {
	p := newTestPool(t, 4)

	want := []Handle{4, 3, 2, 1}
	for i, w := range want {
		h := p.Allocate()
		if h != w {
			t.Fatalf("Allocate #%d: expected %d, got %d", i, w, h)
		}
		if p.ActiveCount() != i+1 {
			t.Errorf("ActiveCount after #%d: expected %d, got %d", i, i+1, p.ActiveCount())
		}
		if idx, _ := p.Index(h); idx != i {
			t.Errorf("handle %d should be appended at index %d, got %d", h, i, idx)
		}
	}
	if p.MaxLiveHandle() != 4 {
		t.Errorf("MaxLiveHandle: expected 4, got %d", p.MaxLiveHandle())
	}

	if h := p.Allocate(); h != NoHandle {
		t.Fatalf("exhausted pool should return NoHandle, got %d", h)
	}
	if err := p.Check(); err != nil {
		t.Fatalf("Check after exhaustion: %v", err)
	}
}

func TestRemoveScenario(t *testing.T) {
	p := newTestPool(t, 4)
	allocTagged(t, p, 4) // dense: 4 3 2 1

	if err := p.Remove([]Handle{1, 3}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if p.ActiveCount() != 2 {
		t.Fatalf("ActiveCount: expected 2, got %d", p.ActiveCount())
	}
	if got := liveOrder(p); !slices.Equal(got, []Handle{4, 2}) {
		t.Fatalf("live order: expected [4 2], got %v", got)
	}
	if got := p.FreeTop(2); !slices.Equal(got, []Handle{3, 1}) {
		t.Errorf("free list top: expected [3 1], got %v", got)
	}
	if p.MaxLiveHandle() != 4 {
		t.Errorf("MaxLiveHandle: expected 4, got %d", p.MaxLiveHandle())
	}
	for _, h := range []Handle{4, 2} {
		if p.Payload(h).Tag != h {
			t.Errorf("payload of %d carries tag %d", h, p.Payload(h).Tag)
		}
	}
	if p.Live(1) || p.Live(3) {
		t.Error("removed handles still reported live")
	}
	if err := p.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// Most recently freed handle is reused first
	if h := p.Allocate(); h != 3 {
		t.Errorf("next Allocate: expected 3, got %d", h)
	}
}

func TestRemoveRecomputesMaxLive(t *testing.T) {
	p := newTestPool(t, 6)
	allocTagged(t, p, 6) // 6 5 4 3 2 1

	if err := p.Remove([]Handle{6, 5}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if p.MaxLiveHandle() != 4 {
		t.Errorf("MaxLiveHandle: expected 4, got %d", p.MaxLiveHandle())
	}
	if got := liveOrder(p); !slices.Equal(got, []Handle{4, 3, 2, 1}) {
		t.Errorf("live order: expected [4 3 2 1], got %v", got)
	}
}

func TestRemoveRejectsBadBatch(t *testing.T) {
	tests := []struct {
		name  string
		batch []Handle
	}{
		{"no handle", []Handle{NoHandle}},
		{"out of range", []Handle{9}},
		{"duplicate", []Handle{2, 2}},
		{"not live", []Handle{1}},
		{"oversized", []Handle{4, 3, 2, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPool(t, 4)
			allocTagged(t, p, 3) // 4 3 2; handle 1 still free
			before := liveOrder(p)

			err := p.Remove(tc.batch)
			var inv *InvariantError
			if !errors.As(err, &inv) {
				t.Fatalf("expected *InvariantError, got %v", err)
			}
			if got := liveOrder(p); !slices.Equal(got, before) {
				t.Errorf("rejected batch mutated live range: %v -> %v", before, got)
			}
			if err := p.Check(); err != nil {
				t.Errorf("pool inconsistent after rejected batch: %v", err)
			}
		})
	}
}

func TestRemoveDetectsCorruptedTables(t *testing.T) {
	p := newTestPool(t, 4)
	allocTagged(t, p, 4)

	// Corrupt the reverse table for an entry that must move
	p.reverse[3] = 2

	var inv *InvariantError
	if err := p.Remove([]Handle{4}); !errors.As(err, &inv) {
		t.Fatalf("expected *InvariantError for corrupted tables, got %v", err)
	}
}

func TestClearAllMatchesFreshPool(t *testing.T) {
	p := newTestPool(t, 8)
	allocTagged(t, p, 5)
	if err := p.Remove([]Handle{7, 5}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	p.ClearAll()

	fresh := newTestPool(t, 8)
	if !slices.Equal(p.free, fresh.free) {
		t.Errorf("free list: expected %v, got %v", fresh.free, p.free)
	}
	if p.ActiveCount() != 0 || p.MaxLiveHandle() != NoHandle {
		t.Errorf("expected empty pool, got active=%d maxLive=%d", p.ActiveCount(), p.MaxLiveHandle())
	}
	if !slices.Equal(p.forward, fresh.forward) || !slices.Equal(p.reverse, fresh.reverse) {
		t.Error("lookup tables differ from fresh pool")
	}
	for i := range p.slots {
		if p.slots[i].Activated {
			t.Errorf("slot %d still activated", i)
		}
	}
	if h := p.Allocate(); h != 8 {
		t.Errorf("first Allocate after clear: expected 8, got %d", h)
	}
}

func TestRandomizedInvariants(t *testing.T) {
	const capacity = 64
	rng := rand.New(rand.NewSource(42))
	p := newTestPool(t, capacity)

	slotsCap, fwdCap, revCap, freeCap := cap(p.slots), cap(p.forward), cap(p.reverse), cap(p.free)

	for round := 0; round < 500; round++ {
		spawn := rng.Intn(capacity / 2)
		for i := 0; i < spawn; i++ {
			h := p.Allocate()
			if h == NoHandle {
				break
			}
			p.Payload(h).Tag = h
		}

		before := liveOrder(p)
		var batch []Handle
		keep := make(map[Handle]bool, len(before))
		for _, h := range before {
			if rng.Intn(3) == 0 {
				batch = append(batch, h)
			} else {
				keep[h] = true
			}
		}
		rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })

		if err := p.Remove(batch); err != nil {
			t.Fatalf("round %d: Remove failed: %v", round, err)
		}
		if err := p.Check(); err != nil {
			t.Fatalf("round %d: Check failed: %v", round, err)
		}
		if p.FreeCount()+p.ActiveCount() != capacity {
			t.Fatalf("round %d: free %d + active %d != %d", round, p.FreeCount(), p.ActiveCount(), capacity)
		}

		var expected []Handle
		for _, h := range before {
			if keep[h] {
				expected = append(expected, h)
			}
		}
		if got := liveOrder(p); !slices.Equal(got, expected) {
			t.Fatalf("round %d: survivor order: expected %v, got %v", round, expected, got)
		}
		for _, h := range expected {
			if p.Payload(h).Tag != h {
				t.Fatalf("round %d: payload of %d carries tag %d", round, h, p.Payload(h).Tag)
			}
		}
	}

	if cap(p.slots) != slotsCap || cap(p.forward) != fwdCap || cap(p.reverse) != revCap || cap(p.free) != freeCap {
		t.Error("pool storage grew during add/remove cycles")
	}
	if len(p.forward) != capacity || len(p.reverse) != capacity {
		t.Errorf("lookup tables sized %d/%d, expected %d", len(p.forward), len(p.reverse), capacity)
	}
}

func TestRemoveDoesNotAllocate(t *testing.T) {
	p := newTestPool(t, 32)
	batch := make([]Handle, 0, 32)

	allocs := testing.AllocsPerRun(100, func() {
		for p.Allocate() != NoHandle {
		}
		batch = batch[:0]
		for i := 0; i < p.ActiveCount(); i += 3 {
			batch = append(batch, p.HandleAt(i))
		}
		if err := p.Remove(batch); err != nil {
			panic(err)
		}
	})
	if allocs != 0 {
		t.Errorf("expected zero allocations per cycle, got %.1f", allocs)
	}
}
