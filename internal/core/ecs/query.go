package ecs

// Each2 iterates over entities that have both component A and B, walking
// the smaller store in its dense order.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for i, id := range sa.ids {
			if j, ok := sb.index[id]; ok {
				fn(id, &sa.items[i], &sb.items[j])
			}
		}
		return
	}
	for j, id := range sb.ids {
		if i, ok := sa.index[id]; ok {
			fn(id, &sa.items[i], &sb.items[j])
		}
	}
}
