package registry

import (
	"slices"

	"github.com/phuocduong/prime-engine/internal/fx/pool"
)

// Record is the expiry bookkeeping of one active item, kept apart from the
// slot payload so a scan never touches inactive slots.
type Record struct {
	Start float64 // program time at spawn
	Cycle float64 // lifetime in seconds
}

// Predicate decides whether an item has expired at program time now.
type Predicate func(rec Record, now float64) bool

// FixedDuration expires an item once its cycle has fully elapsed. No renewal.
func FixedDuration(rec Record, now float64) bool {
	return now >= rec.Start+rec.Cycle
}

// Registry maps live handles to their expiry records.
type Registry struct {
	items map[pool.Handle]Record
}

func New(capacity int) *Registry {
	return &Registry{items: make(map[pool.Handle]Record, capacity)}
}

func (r *Registry) Put(h pool.Handle, rec Record) {
	r.items[h] = rec
}

func (r *Registry) Get(h pool.Handle) (Record, bool) {
	rec, ok := r.items[h]
	return rec, ok
}

func (r *Registry) Delete(h pool.Handle) {
	delete(r.items, h)
}

func (r *Registry) Len() int {
	return len(r.items)
}

// Clear drops every record; map storage is kept for reuse.
func (r *Registry) Clear() {
	clear(r.items)
}

// ScanExpired applies expired to every record and appends the handles that
// match to buf[:0], sorted ascending so release order is deterministic. buf
// is grown to the registry size when needed and never shrunk. The greatest
// surviving handle is returned alongside.
func (r *Registry) ScanExpired(now float64, expired Predicate, buf []pool.Handle) ([]pool.Handle, pool.Handle) {
	buf = slices.Grow(buf[:0], len(r.items))
	var maxLive pool.Handle
	for h, rec := range r.items {
		if expired(rec, now) {
			buf = append(buf, h)
		} else if h > maxLive {
			maxLive = h
		}
	}
	slices.Sort(buf)
	return buf, maxLive
}
