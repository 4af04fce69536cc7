package system

import (
	"time"

	"github.com/phuocduong/prime-engine/internal/component"
	"github.com/phuocduong/prime-engine/internal/config"
	"github.com/phuocduong/prime-engine/internal/core/ecs"
	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
	"github.com/phuocduong/prime-engine/internal/fx/pool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// programEpoch anchors runner time for the rate limiters. Only differences
// between instants matter.
var programEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// EmitterSystem spawns from every emitter entity at its configured rate and
// retires emitters whose lifetime ran out. Phase 1 (Emit).
type EmitterSystem struct {
	world     *ecs.World
	positions *ecs.Store[component.Position]
	emitters  *ecs.Store[component.Emitter]
	set       *fx.Set
	log       *zap.Logger
	clock     time.Duration
}

func NewEmitterSystem(world *ecs.World, set *fx.Set, log *zap.Logger) *EmitterSystem {
	s := &EmitterSystem{
		world:     world,
		positions: ecs.NewStore[component.Position](16),
		emitters:  ecs.NewStore[component.Emitter](16),
		set:       set,
		log:       log,
	}
	world.Registry().Register(s.positions)
	world.Registry().Register(s.emitters)
	return s
}

func (s *EmitterSystem) Phase() coresys.Phase { return coresys.PhaseEmit }

// Add creates an emitter entity. The target system must exist.
func (s *EmitterSystem) Add(cfg config.EmitterConfig) (ecs.EntityID, error) {
	if _, err := s.set.Get(cfg.System); err != nil {
		return 0, err
	}
	id := s.world.CreateEntity()
	s.positions.Set(id, component.Position{X: cfg.X, Y: cfg.Y, Z: cfg.Z})
	s.emitters.Set(id, component.Emitter{
		System:   cfg.System,
		Label:    cfg.Label,
		Lifetime: cfg.Lifetime,
		Limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	})
	s.log.Debug("emitter created",
		zap.Uint64("entity", uint64(id)),
		zap.String("system", cfg.System),
		zap.Float64("rate", cfg.Rate),
	)
	return id, nil
}

// Emitter returns the emitter component of id.
func (s *EmitterSystem) Emitter(id ecs.EntityID) (*component.Emitter, bool) {
	return s.emitters.Get(id)
}

func (s *EmitterSystem) Len() int { return s.emitters.Len() }

func (s *EmitterSystem) Update(dt time.Duration) {
	s.clock += dt
	at := programEpoch.Add(s.clock)
	ecs.Each2(s.positions, s.emitters, func(id ecs.EntityID, p *component.Position, e *component.Emitter) {
		e.Age += dt.Seconds()
		if e.Lifetime > 0 && e.Age >= e.Lifetime {
			s.world.MarkForDestruction(id)
			return
		}
		sys, err := s.set.Get(e.System)
		if err != nil {
			return
		}
		pos := motion.Vec3{X: p.X, Y: p.Y, Z: p.Z}
		for i := 0; i < e.Limiter.Burst() && e.Limiter.AllowN(at, 1); i++ {
			if s.emit(sys, e, pos) {
				e.Spawned++
			} else {
				e.Dropped++
			}
		}
	})
}

func (s *EmitterSystem) emit(sys *fx.System, e *component.Emitter, pos motion.Vec3) bool {
	var h pool.Handle
	var err error
	if e.Label != "" {
		h, err = sys.AddLabel(pos, e.Label, "")
	} else {
		h, err = sys.AddAt(pos)
	}
	if err != nil {
		s.log.Warn("emitter spawn failed", zap.String("system", e.System), zap.Error(err))
		return false
	}
	return h != pool.NoHandle
}
