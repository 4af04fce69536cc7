package system

import (
	"time"

	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"go.uber.org/zap"
)

// maxScriptFailures consecutive on_tick errors disable the hook.
const maxScriptFailures = 3

// TickHook is the script surface ScriptSystem drives.
type TickHook interface {
	HasTickHook() bool
	OnTick(now float64, tick uint64) error
}

// ScriptSystem calls the Lua on_tick hook with runner time. Phase 0 (Input).
// Script errors never halt the runner.
type ScriptSystem struct {
	hook     TickHook
	log      *zap.Logger
	now      float64
	tick     uint64
	failures int
	disabled bool
}

func NewScriptSystem(hook TickHook, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{hook: hook, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptSystem) Update(dt time.Duration) {
	s.now += dt.Seconds()
	s.tick++
	if s.disabled || !s.hook.HasTickHook() {
		return
	}
	if err := s.hook.OnTick(s.now, s.tick); err != nil {
		s.failures++
		s.log.Error("lua on_tick error", zap.Error(err), zap.Int("failures", s.failures))
		if s.failures >= maxScriptFailures {
			s.disabled = true
			s.log.Warn("lua on_tick disabled", zap.Uint64("tick", s.tick))
		}
		return
	}
	s.failures = 0
}

// Disabled reports whether the hook was switched off after repeated errors.
func (s *ScriptSystem) Disabled() bool { return s.disabled }
