package system

import (
	"fmt"
	"math/rand"

	"github.com/phuocduong/prime-engine/internal/config"
	"github.com/phuocduong/prime-engine/internal/data"
	"github.com/phuocduong/prime-engine/internal/fx"
	"go.uber.org/zap"
)

// BuildEffects constructs one fx.System per configured entry. Every system
// draws from its own RNG seeded off seed, so adding a system does not shift
// the samples of the others.
func BuildEffects(systems []config.SystemConfig, presets *data.PresetTable, seed int64, log *zap.Logger) (*fx.Set, error) {
	set := fx.NewSet()
	for i, sc := range systems {
		kind, err := sc.MotionKind()
		if err != nil {
			return nil, fmt.Errorf("system %q: %w", sc.Name, err)
		}
		var preset *data.Preset
		if sc.Preset != "" {
			if preset = presets.Get(sc.Preset); preset == nil {
				return nil, fmt.Errorf("system %q: unknown preset %q", sc.Name, sc.Preset)
			}
		}
		sys, err := fx.NewSystem(fx.Config{
			Name:     sc.Name,
			Kind:     kind,
			Capacity: sc.Capacity,
			Asset:    sc.Asset,
			Preset:   preset,
		}, rand.New(rand.NewSource(seed+int64(i)*7919)), log)
		if err != nil {
			return nil, err
		}
		if err := set.Register(sys); err != nil {
			return nil, err
		}
		log.Info("effect system ready",
			zap.String("system", sc.Name),
			zap.String("kind", kind.String()),
			zap.Int("capacity", sc.Capacity),
			zap.String("preset", sc.Preset),
		)
	}
	return set, nil
}
