package component

import "golang.org/x/time/rate"

// Position is an emitter's spawn point in effect space.
type Position struct {
	X, Y, Z float64
}

// Emitter feeds one effect system at a steady rate.
// Pure data; EmitterSystem owns every mutation.
type Emitter struct {
	System   string  // target effect system name
	Label    string  // non-empty: spawn labels carrying this text
	Lifetime float64 // seconds; 0 = until shut down
	Age      float64 // seconds since creation

	// Limiter paces spawns against program time, not wall time.
	Limiter *rate.Limiter

	Spawned uint64
	Dropped uint64
}
