package system

import (
	"errors"
	"time"

	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/fx/pool"
	"go.uber.org/zap"
)

// Ticker advances effect state by dt seconds. *fx.Set implements it.
type Ticker interface {
	Tick(dt float64) error
}

// SimulateSystem advances every effect system. Phase 2 (Simulate).
//
// A bookkeeping violation is fatal: it is logged and raised to the runner,
// which halts.
type SimulateSystem struct {
	set Ticker
	log *zap.Logger
}

func NewSimulateSystem(set Ticker, log *zap.Logger) *SimulateSystem {
	return &SimulateSystem{set: set, log: log}
}

func (s *SimulateSystem) Phase() coresys.Phase { return coresys.PhaseSimulate }

func (s *SimulateSystem) Update(dt time.Duration) {
	err := s.set.Tick(dt.Seconds())
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	var inv *pool.InvariantError
	if errors.As(err, &inv) {
		fields = append(fields, zap.String("op", inv.Op), zap.Uint32("handle", uint32(inv.Handle)), zap.Int("index", inv.Index))
	}
	s.log.Error("effect tick failed", fields...)
	panic(err)
}
