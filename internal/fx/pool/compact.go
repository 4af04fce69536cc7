package pool

import (
	"fmt"
	"slices"
)

// InvariantError reports corrupted pool bookkeeping. It is fatal: the owning
// tick loop must stop rather than risk misrendering or double-freeing.
type InvariantError struct {
	Op     string
	Handle Handle
	Index  int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("pool %s: handle %d at index %d: %s", e.Op, e.Handle, e.Index, e.Detail)
}

// Remove retires a batch of distinct live handles in one pass.
//
// Each handle is released and converted to its dense index; the indices are
// sorted and every maximal run of kept entries between two gaps is moved as a
// block to the write cursor. Survivors keep their relative order and each one
// moves at most once, so the cost is O(active count) however many entries go.
func (p *Pool[P]) Remove(handles []Handle) error {
	if len(handles) == 0 {
		return nil
	}
	start := p.ActiveCount()
	if len(handles) > start {
		return &InvariantError{Op: "remove", Index: start,
			Detail: fmt.Sprintf("batch of %d exceeds active count %d", len(handles), start)}
	}

	// Validate before touching the free list. Activated doubles as the
	// duplicate marker; undo the marks if the batch is rejected.
	for n, h := range handles {
		if err := p.checkLive("remove", h, start); err != nil {
			for _, prev := range handles[:n] {
				p.slots[p.forward[prev-1]].Activated = true
			}
			return err
		}
		p.slots[p.forward[h-1]].Activated = false
	}

	idx := p.scratch[:0]
	for _, h := range handles {
		idx = append(idx, int(p.forward[h-1]))
		p.release(h)
		p.forward[h-1] = tombstone
	}
	p.scratch = idx
	slices.Sort(idx)

	to := idx[0]
	from := to + 1
	r := 1
	for {
		for r < len(idx) && from == idx[r] {
			from++
			r++
		}
		if from >= start {
			break
		}
		end := start
		if r < len(idx) {
			end = idx[r]
		}
		for i := from; i < end; i++ {
			h := p.reverse[i]
			if h == NoHandle || p.forward[h-1] != int32(i) {
				return &InvariantError{Op: "compact", Handle: h, Index: i,
					Detail: "forward/reverse tables disagree"}
			}
			p.slots[to], p.slots[i] = p.slots[i], p.slots[to]
			p.forward[h-1] = int32(to)
			p.reverse[to] = h
			to++
		}
		from = end
	}

	active := start - len(idx)
	if to != active {
		return &InvariantError{Op: "compact", Index: to,
			Detail: fmt.Sprintf("write cursor stopped short of active count %d", active)}
	}
	for i := active; i < start; i++ {
		p.reverse[i] = NoHandle
	}

	p.maxLive = NoHandle
	for _, h := range p.reverse[:active] {
		if h > p.maxLive {
			p.maxLive = h
		}
	}
	return nil
}

func (p *Pool[P]) checkLive(op string, h Handle, active int) error {
	if h == NoHandle || int(h) > len(p.slots) {
		return &InvariantError{Op: op, Handle: h, Index: -1, Detail: "handle out of range"}
	}
	i := p.forward[h-1]
	if i == tombstone || int(i) >= active {
		return &InvariantError{Op: op, Handle: h, Index: int(i), Detail: "handle not live"}
	}
	if p.reverse[i] != h {
		return &InvariantError{Op: op, Handle: h, Index: int(i),
			Detail: fmt.Sprintf("reverse table holds %d", p.reverse[i])}
	}
	if !p.slots[i].Activated {
		return &InvariantError{Op: op, Handle: h, Index: int(i), Detail: "duplicate handle in batch"}
	}
	return nil
}

// Check verifies every bookkeeping invariant: the tables are mutual inverses
// over the live range, free handles are tombstoned, free plus active equals
// capacity, and the max-live handle is exact.
func (p *Pool[P]) Check() error {
	active := p.ActiveCount()
	if active < 0 {
		return &InvariantError{Op: "check", Index: active, Detail: "free list larger than capacity"}
	}

	var maxLive Handle
	for i := 0; i < active; i++ {
		h := p.reverse[i]
		if err := p.checkLive("check", h, active); err != nil {
			return err
		}
		if p.forward[h-1] != int32(i) {
			return &InvariantError{Op: "check", Handle: h, Index: i, Detail: "forward table mismatch"}
		}
		if h > maxLive {
			maxLive = h
		}
	}
	if maxLive != p.maxLive {
		return &InvariantError{Op: "check", Handle: p.maxLive, Index: -1,
			Detail: fmt.Sprintf("max live handle should be %d", maxLive)}
	}

	seen := make([]bool, len(p.slots))
	for _, h := range p.free {
		if h == NoHandle || int(h) > len(p.slots) {
			return &InvariantError{Op: "check", Handle: h, Index: -1, Detail: "free handle out of range"}
		}
		if seen[h-1] {
			return &InvariantError{Op: "check", Handle: h, Index: -1, Detail: "handle freed twice"}
		}
		seen[h-1] = true
		if p.forward[h-1] != tombstone {
			return &InvariantError{Op: "check", Handle: h, Index: int(p.forward[h-1]), Detail: "free handle still mapped"}
		}
	}
	return nil
}
