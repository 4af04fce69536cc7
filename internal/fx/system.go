package fx

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/phuocduong/prime-engine/internal/data"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
	"github.com/phuocduong/prime-engine/internal/fx/pool"
	"github.com/phuocduong/prime-engine/internal/fx/registry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrUnknownSystem = errors.New("unknown effect system")
	ErrNoPreset      = errors.New("effect system has no spawn preset")
)

// Config describes one monitored effect system.
type Config struct {
	Name     string
	Kind     motion.Kind
	Capacity int
	Asset    string // opaque to the pool, forwarded to the presenter
	Preset   *data.Preset
	Expired  registry.Predicate // nil selects registry.FixedDuration
}

// Spawn is the initial state of a new effect instance.
type Spawn struct {
	Origin      motion.Vec3
	Velocity    motion.Vec3
	Accel       motion.Vec3
	Cycle       float64
	ScaleStart  float64
	ScaleEnd    float64
	RotateSpeed float64
	Content     motion.Content
}

// Stats counts lifecycle events since construction.
type Stats struct {
	Ticks     uint64
	Spawned   uint64
	Dropped   uint64
	Expired   uint64
	Cancelled uint64
	Clears    uint64
}

// entry is the slot payload. The visual travels with the particle when
// compaction moves the slot.
type entry struct {
	particle motion.Particle
	visual   motion.Visual
}

// System is a monitored particle system: a dense pool, an active-item
// registry keyed by handle, a motion policy and a program clock.
//
// Not goroutine-safe; one tick is one atomic step of the owning loop.
type System struct {
	name    string
	asset   string
	pool    *pool.Pool[entry]
	active  *registry.Registry
	policy  motion.Policy
	expired registry.Predicate
	preset  *data.Preset
	rng     *rand.Rand
	log     *zap.Logger

	now        float64
	scratch    []pool.Handle
	cancelled  []pool.Handle
	indexCount int
	syncCount  int
	stats      Stats
}

// NewSystem builds a system. An unsupported motion kind or a non-positive
// capacity fails here rather than at tick time.
func NewSystem(cfg Config, rng *rand.Rand, log *zap.Logger) (*System, error) {
	policy, err := motion.New(cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("system %q: %w", cfg.Name, err)
	}
	p, err := pool.New[entry](cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("system %q: %w", cfg.Name, err)
	}
	expired := cfg.Expired
	if expired == nil {
		expired = registry.FixedDuration
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		name:      cfg.Name,
		asset:     cfg.Asset,
		pool:      p,
		active:    registry.New(cfg.Capacity),
		policy:    policy,
		expired:   expired,
		preset:    cfg.Preset,
		rng:       rng,
		log:       log.With(zap.String("system", cfg.Name)),
		scratch:   make([]pool.Handle, 0, cfg.Capacity),
		cancelled: make([]pool.Handle, 0, cfg.Capacity),
	}, nil
}

func (s *System) Name() string { return s.name }
func (s *System) Asset() string { return s.asset }
func (s *System) Kind() motion.Kind { return s.policy.Kind() }
func (s *System) Capacity() int { return s.pool.Capacity() }
func (s *System) ActiveCount() int { return s.pool.ActiveCount() }
func (s *System) Now() float64 { return s.now }
func (s *System) Stats() Stats { return s.stats }
func (s *System) IndexCount() int { return s.indexCount }
func (s *System) SyncCount() int { return s.syncCount }
func (s *System) Live(h pool.Handle) bool { return s.pool.Live(h) }

// Advance moves the program clock forward by dt seconds.
func (s *System) Advance(dt float64) {
	s.now += dt
}

// Add spawns an effect instance and returns its handle. NoHandle means the
// spawn was dropped (pool exhausted or a non-positive cycle); callers skip
// the effect silently.
func (s *System) Add(sp Spawn) pool.Handle {
	if !(sp.Cycle > 0) {
		s.drop("non-positive cycle")
		return pool.NoHandle
	}
	h := s.pool.Allocate()
	if h == pool.NoHandle {
		s.drop("pool exhausted")
		return pool.NoHandle
	}

	e := s.pool.Payload(h)
	e.particle = motion.Particle{
		Origin:      sp.Origin,
		Velocity:    sp.Velocity,
		Accel:       sp.Accel,
		Start:       s.now,
		Cycle:       sp.Cycle,
		ScaleStart:  sp.ScaleStart,
		ScaleEnd:    sp.ScaleEnd,
		RotateSpeed: sp.RotateSpeed,
		Content:     sp.Content,
	}
	e.visual = s.policy.Compute(&e.particle, 0)
	s.active.Put(h, registry.Record{Start: s.now, Cycle: sp.Cycle})

	s.stats.Spawned++
	s.publish()
	return h
}

// AddAt spawns at pos with parameters drawn from the system's preset.
func (s *System) AddAt(pos motion.Vec3) (pool.Handle, error) {
	if s.preset == nil {
		return pool.NoHandle, fmt.Errorf("system %q: %w", s.name, ErrNoPreset)
	}
	return s.Add(s.SpawnFromPreset(pos)), nil
}

// AddLabel spawns a preset instance carrying text. An empty style keeps the
// preset's style.
func (s *System) AddLabel(pos motion.Vec3, text, style string) (pool.Handle, error) {
	if s.preset == nil {
		return pool.NoHandle, fmt.Errorf("system %q: %w", s.name, ErrNoPreset)
	}
	sp := s.SpawnFromPreset(pos)
	sp.Content.Markup = text
	if style != "" {
		sp.Content.Style = style
	}
	return s.Add(sp), nil
}

func (s *System) HasPreset() bool { return s.preset != nil }

// SpawnFromPreset samples the preset into a Spawn at pos.
func (s *System) SpawnFromPreset(pos motion.Vec3) Spawn {
	p := s.preset
	return Spawn{
		Origin:      pos,
		Velocity:    motion.Vec3{X: p.VelocityX.Sample(s.rng), Y: p.VelocityY.Sample(s.rng), Z: p.VelocityZ.Sample(s.rng)},
		Accel:       motion.Vec3{X: p.AccelX.Sample(s.rng), Y: p.AccelY.Sample(s.rng), Z: p.AccelZ.Sample(s.rng)},
		Cycle:       p.Cycle.Sample(s.rng),
		ScaleStart:  p.ScaleStart.Sample(s.rng),
		ScaleEnd:    p.ScaleEnd.Sample(s.rng),
		RotateSpeed: p.RotateSpeed.Sample(s.rng),
		Content:     motion.Content{Markup: p.Markup, Style: p.Style},
	}
}

// Cancel erases h's record early. The handle stays live and its slot is
// retired with the next tick's remove batch. Returns false if h is not an
// active, uncancelled item.
func (s *System) Cancel(h pool.Handle) bool {
	if _, ok := s.active.Get(h); !ok {
		return false
	}
	s.active.Delete(h)
	s.cancelled = append(s.cancelled, h)
	return true
}

// Tick advances the clock, recomputes every activated slot's visual, then
// retires expired and cancelled items. A returned error is a fatal
// bookkeeping violation; the caller must stop ticking this system.
func (s *System) Tick(dt float64) error {
	s.Advance(dt)
	s.stats.Ticks++

	start := s.pool.ActiveCount()
	for i := 0; i < start; i++ {
		slot := s.pool.SlotAt(i)
		if !slot.Activated {
			continue
		}
		e := &slot.Payload
		e.visual = s.policy.Compute(&e.particle, motion.Elapsed(&e.particle, s.now))
	}

	expired, maxLive := s.active.ScanExpired(s.now, s.expired, s.scratch)
	n := len(expired)
	if len(s.cancelled) > 0 {
		expired = append(expired, s.cancelled...)
		slices.Sort(expired)
	}
	s.scratch = expired
	if len(expired) == 0 {
		return nil
	}

	if len(expired) == start {
		s.stats.Expired += uint64(n)
		s.stats.Cancelled += uint64(len(s.cancelled))
		s.clearAll()
		return nil
	}

	for _, h := range expired {
		s.active.Delete(h)
	}
	if err := s.pool.Remove(expired); err != nil {
		return fmt.Errorf("system %q: %w", s.name, err)
	}
	if live := s.pool.MaxLiveHandle(); live != maxLive {
		return fmt.Errorf("system %q: %w", s.name, &pool.InvariantError{
			Op: "tick", Handle: live, Index: -1,
			Detail: fmt.Sprintf("registry max live handle is %d", maxLive),
		})
	}

	s.stats.Expired += uint64(n)
	s.stats.Cancelled += uint64(len(s.cancelled))
	s.cancelled = s.cancelled[:0]
	s.publish()
	return nil
}

// ClearAll retires every item at once and resets the program clock. The
// system ends up in the state of a freshly constructed one.
func (s *System) ClearAll() {
	s.clearAll()
}

func (s *System) clearAll() {
	s.active.Clear()
	s.pool.ClearAll()
	s.cancelled = s.cancelled[:0]
	s.now = 0
	s.indexCount = 0
	s.syncCount = 0
	s.stats.Clears++
}

// Visual returns the last computed visual of a live handle.
func (s *System) Visual(h pool.Handle) (motion.Visual, bool) {
	e := s.pool.Payload(h)
	if e == nil {
		return motion.Visual{}, false
	}
	return e.visual, true
}

func (s *System) publish() {
	s.indexCount = s.pool.ActiveCount()
	s.syncCount = int(s.pool.MaxLiveHandle())
}

func (s *System) drop(reason string) {
	s.stats.Dropped++
	if ce := s.log.Check(zapcore.DebugLevel, "spawn dropped"); ce != nil {
		ce.Write(zap.String("reason", reason), zap.Int("active", s.pool.ActiveCount()))
	}
}
