package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a sparse-set component store: components sit in a dense slice and
// Each walks them in slice order, so iteration is reproducible for a given
// sequence of Set and Remove calls. Remove swaps the last element into the
// hole.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	items []T
}

func NewStore[T any](capacity int) *Store[T] {
	return &Store[T]{
		index: make(map[EntityID]int, capacity),
		ids:   make([]EntityID, 0, capacity),
		items: make([]T, 0, capacity),
	}
}

// Set inserts or overwrites id's component.
func (s *Store[T]) Set(id EntityID, c T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.items = append(s.items, c)
}

// Get returns a pointer into the dense slice. It is invalidated by the next
// Set or Remove on this store.
func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.items[i], true
}

func (s *Store[T]) Remove(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	last := len(s.ids) - 1
	if i != last {
		moved := s.ids[last]
		s.ids[i] = moved
		s.items[i] = s.items[last]
		s.index[moved] = i
	}
	var zero T
	s.items[last] = zero
	s.ids = s.ids[:last]
	s.items = s.items[:last]
	delete(s.index, id)
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Each visits components in dense order. fn must not add or remove
// components of this store.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i := range s.ids {
		fn(s.ids[i], &s.items[i])
	}
}
