package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: swap the bus, apply queued requests, run script hooks
	PhaseEmit                  // 1: emitters spawn into their effect systems
	PhaseSimulate              // 2: advance every effect system
	PhasePresent               // 3: draw the frame
	PhasePersist               // 4: stats snapshots
	PhaseCleanup               // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseEmit:
		return "emit"
	case PhaseSimulate:
		return "simulate"
	case PhasePresent:
		return "present"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every runner system implements. A system that hits
// an unrecoverable error panics with a value implementing error; the runner
// turns that into a halt.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
