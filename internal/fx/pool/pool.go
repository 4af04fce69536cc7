package pool

import (
	"errors"
	"fmt"
)

// Handle is the stable external identifier of a pool entry. Valid handles are
// 1..capacity; NoHandle marks an allocation failure.
type Handle uint32

const NoHandle Handle = 0

// tombstone marks a forward-table entry whose handle is not live.
const tombstone int32 = -1

var ErrCapacity = errors.New("pool capacity must be positive")

// Slot is one entry of the dense array. Payload is mutated in place and moves
// with the slot during compaction; it is never reallocated.
type Slot[P any] struct {
	Payload   P
	Activated bool
}

// Pool is a fixed-capacity dense pool with a LIFO free list of handles.
//
// Live entries are packed at the front of the dense array. The forward table
// maps a handle to its current dense index and the reverse table maps a dense
// index back to its handle; the two are mutual inverses over the live range.
// Positions move during Remove, so dense indices must never be cached across
// a tick.
//
// Not goroutine-safe. The owning system runs single-threaded inside the tick.
type Pool[P any] struct {
	slots   []Slot[P]
	free    []Handle
	forward []int32  // forward[h-1] = dense index of h, or tombstone
	reverse []Handle // reverse[i] = handle stored at dense index i
	scratch []int    // dense indices of the current remove batch
	maxLive Handle
}

// New creates a pool of the given capacity with every handle free.
// All storage is allocated here; nothing grows afterwards.
func New[P any](capacity int) (*Pool[P], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	p := &Pool[P]{
		slots:   make([]Slot[P], capacity),
		free:    make([]Handle, 0, capacity),
		forward: make([]int32, capacity),
		reverse: make([]Handle, capacity),
		scratch: make([]int, 0, capacity),
	}
	p.reset()
	return p, nil
}

// reset seeds the free list so that Allocate hands out capacity, capacity-1,
// ..., 1 and marks every slot and table entry free.
func (p *Pool[P]) reset() {
	p.free = p.free[:0]
	for h := 1; h <= len(p.slots); h++ {
		p.free = append(p.free, Handle(h))
	}
	for i := range p.forward {
		p.forward[i] = tombstone
	}
	for i := range p.reverse {
		p.reverse[i] = NoHandle
	}
	for i := range p.slots {
		p.slots[i].Activated = false
	}
	p.maxLive = NoHandle
}

// Allocate pops a handle off the free list and appends its entry at the end of
// the live range. Returns NoHandle when the pool is exhausted; callers treat
// that as a dropped spawn, not an error.
func (p *Pool[P]) Allocate() Handle {
	n := len(p.free)
	if n == 0 {
		return NoHandle
	}
	h := p.free[n-1]
	p.free = p.free[:n-1]

	idx := p.ActiveCount() - 1
	p.forward[h-1] = int32(idx)
	p.reverse[idx] = h
	p.slots[idx].Activated = true
	if h > p.maxLive {
		p.maxLive = h
	}
	return h
}

// release returns h to the top of the free list. Only Remove calls it, so the
// tables and the pool's active count stay consistent.
func (p *Pool[P]) release(h Handle) {
	p.slots[p.forward[h-1]].Activated = false
	p.free = append(p.free, h)
}

// ClearAll frees every handle at once. The resulting state is identical to a
// freshly created pool of the same capacity (payload contents aside).
func (p *Pool[P]) ClearAll() {
	p.reset()
}

// Capacity returns the fixed number of slots.
func (p *Pool[P]) Capacity() int { return len(p.slots) }

// ActiveCount returns the number of packed live entries.
func (p *Pool[P]) ActiveCount() int { return len(p.slots) - len(p.free) }

// FreeCount returns the number of unallocated handles.
func (p *Pool[P]) FreeCount() int { return len(p.free) }

// MaxLiveHandle returns the greatest live handle, or NoHandle when empty.
func (p *Pool[P]) MaxLiveHandle() Handle { return p.maxLive }

// Live reports whether h currently refers to an allocated entry.
func (p *Pool[P]) Live(h Handle) bool {
	if h == NoHandle || int(h) > len(p.slots) {
		return false
	}
	return p.forward[h-1] != tombstone
}

// Index returns the current dense index of h. Valid until the next Remove.
func (p *Pool[P]) Index(h Handle) (int, bool) {
	if !p.Live(h) {
		return 0, false
	}
	return int(p.forward[h-1]), true
}

// Payload returns the payload of a live handle, or nil.
func (p *Pool[P]) Payload(h Handle) *P {
	idx, ok := p.Index(h)
	if !ok {
		return nil
	}
	return &p.slots[idx].Payload
}

// SlotAt returns the slot stored at dense index i.
func (p *Pool[P]) SlotAt(i int) *Slot[P] { return &p.slots[i] }

// HandleAt returns the handle stored at dense index i of the live range.
func (p *Pool[P]) HandleAt(i int) Handle {
	if i < 0 || i >= p.ActiveCount() {
		return NoHandle
	}
	return p.reverse[i]
}

// FreeTop returns up to n handles from the top of the free list, most recently
// freed first.
func (p *Pool[P]) FreeTop(n int) []Handle {
	if n > len(p.free) {
		n = len(p.free)
	}
	out := make([]Handle, n)
	for i := 0; i < n; i++ {
		out[i] = p.free[len(p.free)-1-i]
	}
	return out
}
