package system

import (
	"time"

	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/fx"
)

// Presenter draws the current frame of every effect system.
type Presenter interface {
	Draw(set *fx.Set)
}

// PresentSystem hands the post-tick state to the presentation layer.
// Phase 3 (Present).
type PresentSystem struct {
	set       *fx.Set
	presenter Presenter
}

func NewPresentSystem(set *fx.Set, p Presenter) *PresentSystem {
	return &PresentSystem{set: set, presenter: p}
}

func (s *PresentSystem) Phase() coresys.Phase { return coresys.PhasePresent }

func (s *PresentSystem) Update(_ time.Duration) {
	s.presenter.Draw(s.set)
}
