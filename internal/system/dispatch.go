package system

import (
	"time"

	"github.com/phuocduong/prime-engine/internal/core/event"
	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/fx"
	"go.uber.org/zap"
)

// EventDispatchSystem swaps the bus and applies last tick's effect requests
// to their systems. Phase 0 (Input), registered before ScriptSystem so that
// script requests land one tick later.
type EventDispatchSystem struct {
	bus *event.Bus
	set *fx.Set
	log *zap.Logger
}

func NewEventDispatchSystem(bus *event.Bus, set *fx.Set, log *zap.Logger) *EventDispatchSystem {
	s := &EventDispatchSystem{bus: bus, set: set, log: log}
	event.Subscribe(bus, s.onSpawn)
	event.Subscribe(bus, s.onSpawnAt)
	event.Subscribe(bus, s.onLabel)
	event.Subscribe(bus, s.onClear)
	return s
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

func (s *EventDispatchSystem) target(name string) *fx.System {
	sys, err := s.set.Get(name)
	if err != nil {
		s.log.Warn("effect request dropped", zap.Error(err))
		return nil
	}
	return sys
}

func (s *EventDispatchSystem) onSpawn(ev event.SpawnRequested) {
	if sys := s.target(ev.System); sys != nil {
		sys.Add(ev.Spawn)
	}
}

func (s *EventDispatchSystem) onSpawnAt(ev event.SpawnAtRequested) {
	sys := s.target(ev.System)
	if sys == nil {
		return
	}
	if _, err := sys.AddAt(ev.Pos); err != nil {
		s.log.Warn("spawn_at dropped", zap.Error(err))
	}
}

func (s *EventDispatchSystem) onLabel(ev event.LabelRequested) {
	sys := s.target(ev.System)
	if sys == nil {
		return
	}
	if _, err := sys.AddLabel(ev.Pos, ev.Text, ev.Style); err != nil {
		s.log.Warn("label dropped", zap.Error(err))
	}
}

func (s *EventDispatchSystem) onClear(ev event.ClearRequested) {
	if sys := s.target(ev.System); sys != nil {
		sys.ClearAll()
		s.log.Debug("effect system cleared", zap.String("system", ev.System))
	}
}
