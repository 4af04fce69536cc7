package system

import (
	"context"
	"time"

	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/persist"
	"go.uber.org/zap"
)

// StatsWriter stores counter snapshots. *persist.StatsRepo implements it.
type StatsWriter interface {
	WriteSnapshots(ctx context.Context, rows []persist.StatsRow) error
}

// StatsSystem snapshots every effect system's counters every N ticks.
// Phase 4 (Persist). Write failures are logged and never halt the runner.
type StatsSystem struct {
	set       *fx.Set
	writer    StatsWriter
	runID     string
	log       *zap.Logger
	interval  int
	tickCount int
	ticks     uint64
	rows      []persist.StatsRow
}

func NewStatsSystem(set *fx.Set, writer StatsWriter, runID string, intervalTicks int, log *zap.Logger) *StatsSystem {
	return &StatsSystem{
		set:      set,
		writer:   writer,
		runID:    runID,
		log:      log,
		interval: intervalTicks,
		rows:     make([]persist.StatsRow, 0, set.Len()),
	}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *StatsSystem) Update(_ time.Duration) {
	s.ticks++
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes a snapshot immediately. Called on shutdown.
func (s *StatsSystem) Flush() {
	s.rows = s.rows[:0]
	for _, sys := range s.set.All() {
		st := sys.Stats()
		s.rows = append(s.rows, persist.StatsRow{
			RunID:      s.runID,
			Tick:       s.ticks,
			System:     sys.Name(),
			Kind:       sys.Kind().String(),
			Capacity:   sys.Capacity(),
			IndexCount: sys.IndexCount(),
			SyncCount:  sys.SyncCount(),
			Spawned:    st.Spawned,
			Dropped:    st.Dropped,
			Expired:    st.Expired,
			Cancelled:  st.Cancelled,
			Clears:     st.Clears,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.WriteSnapshots(ctx, s.rows); err != nil {
		s.log.Warn("stats snapshot failed", zap.Error(err), zap.Uint64("tick", s.ticks))
		return
	}
	s.log.Debug("stats snapshot", zap.Int("systems", len(s.rows)), zap.Uint64("tick", s.ticks))
}
