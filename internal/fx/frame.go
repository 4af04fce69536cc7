package fx

import (
	"fmt"

	"github.com/phuocduong/prime-engine/internal/fx/motion"
	"go.uber.org/zap"
)

// Frame is the read-only view handed to the presentation layer after a
// tick: the visuals of the live range plus the two sync counters. It never
// exposes dense indices.
type Frame struct {
	System     string
	Asset      string
	Kind       motion.Kind
	Now        float64
	IndexCount int
	SyncCount  int
	Visuals    []motion.Visual
}

// Snapshot fills f with the current live range, reusing f.Visuals.
func (s *System) Snapshot(f *Frame) {
	f.System = s.name
	f.Asset = s.asset
	f.Kind = s.policy.Kind()
	f.Now = s.now
	f.IndexCount = s.indexCount
	f.SyncCount = s.syncCount
	f.Visuals = f.Visuals[:0]
	for i := 0; i < s.indexCount; i++ {
		f.Visuals = append(f.Visuals, s.pool.SlotAt(i).Payload.visual)
	}
}

// Set holds the configured systems in registration order.
type Set struct {
	systems []*System
	byName  map[string]*System
}

func NewSet() *Set {
	return &Set{byName: make(map[string]*System, 8)}
}

// Register adds a system; names must be unique.
func (s *Set) Register(sys *System) error {
	if _, dup := s.byName[sys.Name()]; dup {
		return fmt.Errorf("effect system %q registered twice", sys.Name())
	}
	s.systems = append(s.systems, sys)
	s.byName[sys.Name()] = sys
	return nil
}

// Get returns the named system.
func (s *Set) Get(name string) (*System, error) {
	sys, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
	}
	return sys, nil
}

// All returns systems in registration order.
func (s *Set) All() []*System {
	return s.systems
}

func (s *Set) Len() int {
	return len(s.systems)
}

// Tick advances every system by dt seconds. The first fatal error stops
// the pass and is returned.
func (s *Set) Tick(dt float64) error {
	for _, sys := range s.systems {
		if err := sys.Tick(dt); err != nil {
			return err
		}
	}
	return nil
}

// LogSummary writes one line per system at Info level.
func (s *Set) LogSummary(log *zap.Logger) {
	for _, sys := range s.systems {
		st := sys.Stats()
		log.Info("effect system",
			zap.String("system", sys.Name()),
			zap.String("kind", sys.Kind().String()),
			zap.Int("capacity", sys.Capacity()),
			zap.Int("index_count", sys.IndexCount()),
			zap.Int("sync_count", sys.SyncCount()),
			zap.Uint64("spawned", st.Spawned),
			zap.Uint64("dropped", st.Dropped),
			zap.Uint64("expired", st.Expired),
		)
	}
}
