package event

import (
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
)

// Effect requests. Producers (scripts, emitters, game logic) emit these during
// tick N; the input phase of tick N+1 applies them to the named system.

type SpawnRequested struct {
	System string
	Spawn  fx.Spawn
}

// SpawnAtRequested spawns with the target system's preset.
type SpawnAtRequested struct {
	System string
	Pos    motion.Vec3
}

// LabelRequested spawns a preset instance carrying text content.
type LabelRequested struct {
	System string
	Pos    motion.Vec3
	Text   string
	Style  string
}

type ClearRequested struct {
	System string
}
