package system

import (
	"fmt"
	"sort"
	"time"
)

// HaltError reports the system that stopped the runner.
type HaltError struct {
	Phase Phase
	Err   error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("runner halted in %s phase: %v", e.Phase, e.Err)
}

func (e *HaltError) Unwrap() error { return e.Err }

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	halted  error
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs one full pass. After a halt every later call returns the same
// error without running anything.
func (r *Runner) Tick(dt time.Duration) error {
	if r.halted != nil {
		return r.halted
	}
	r.ensureSorted()
	for _, s := range r.systems {
		if err := r.update(s, dt); err != nil {
			r.halted = err
			return err
		}
	}
	r.ticks++
	return nil
}

// Ticks returns the number of completed passes.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Halted returns the error that stopped the runner, if any.
func (r *Runner) Halted() error { return r.halted }

func (r *Runner) update(s System, dt time.Duration) (err error) {
	defer func() {
		if v := recover(); v != nil {
			e, ok := v.(error)
			if !ok {
				panic(v)
			}
			err = &HaltError{Phase: s.Phase(), Err: e}
		}
	}()
	s.Update(dt)
	return nil
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
