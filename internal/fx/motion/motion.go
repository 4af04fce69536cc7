package motion

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Fade window, as fractions of the cycle.
const (
	FadeIntro = 0.1
	FadeOutro = 0.4
)

var ErrUnsupportedKind = errors.New("unsupported motion kind")

// Vec3 is a float64 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Content is an opaque payload applied verbatim by the presentation layer.
type Content struct {
	Markup string
	Style  string
}

// Particle is the per-slot payload. It lives inside a pool slot and is
// overwritten in place on every spawn.
type Particle struct {
	Origin      Vec3
	Velocity    Vec3
	Accel       Vec3
	Start       float64
	Cycle       float64
	ScaleStart  float64
	ScaleEnd    float64
	RotateSpeed float64
	Content     Content
}

// Visual is the computed state handed to the presentation layer.
type Visual struct {
	Position Vec3
	Rotation float64
	Scale    float64
	Opacity  float64
	Content  Content
}

// Kind selects a motion policy.
type Kind int

const (
	KindLinear Kind = iota
	KindAccelerated
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindAccelerated:
		return "accelerated"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a config name onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "vapor":
		return KindLinear, nil
	case "accelerated", "force":
		return KindAccelerated, nil
	case "label", "html":
		return KindLabel, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// Policy computes a slot's visual state from its payload and the time elapsed
// since spawn. Called once per activated slot per tick.
type Policy interface {
	Kind() Kind
	Compute(p *Particle, elapsed float64) Visual
}

// New returns the policy for kind. An unknown kind is a programming error
// and fails system construction.
func New(kind Kind) (Policy, error) {
	switch kind {
	case KindLinear:
		return linear{}, nil
	case KindAccelerated:
		return accelerated{}, nil
	case KindLabel:
		return label{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}

// Fade is the shared opacity law over normalized time t in [0,1]: ramp up
// over the intro, hold, ramp down over the outro.
func Fade(t float64) float64 {
	if t < FadeIntro {
		return t / FadeIntro
	}
	if t > 1.0-FadeOutro {
		return (1.0 - t) / FadeOutro
	}
	return 1.0
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Elapsed returns the time since spawn wrapped into [0, cycle).
func Elapsed(p *Particle, now float64) float64 {
	return math.Mod(now-p.Start, p.Cycle)
}

type linear struct{}

func (linear) Kind() Kind { return KindLinear }

func (linear) Compute(p *Particle, elapsed float64) Visual {
	return drift(p, elapsed)
}

type accelerated struct{}

func (accelerated) Kind() Kind { return KindAccelerated }

// Compute adds accel·e² without the conventional ½ factor; existing effect
// tuning depends on this curve.
func (accelerated) Compute(p *Particle, elapsed float64) Visual {
	v := drift(p, elapsed)
	v.Position = v.Position.Add(p.Accel.Scale(elapsed * elapsed))
	return v
}

type label struct{}

func (label) Kind() Kind { return KindLabel }

func (label) Compute(p *Particle, elapsed float64) Visual {
	v := drift(p, elapsed)
	v.Content = p.Content
	return v
}

func drift(p *Particle, elapsed float64) Visual {
	t := elapsed / p.Cycle
	return Visual{
		Position: p.Origin.Add(p.Velocity.Scale(elapsed)),
		Rotation: elapsed * p.RotateSpeed,
		Scale:    Lerp(p.ScaleStart, p.ScaleEnd, t),
		Opacity:  Fade(t),
	}
}
