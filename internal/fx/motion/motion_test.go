package motion

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestFade(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{0.05, 0.5},
		{0.1, 1.0},
		{0.5, 1.0},
		{0.8, 0.5},
		{1.0, 0},
	}
	for _, tc := range tests {
		if got := Fade(tc.t); !near(got, tc.want) {
			t.Errorf("Fade(%v): expected %v, got %v", tc.t, tc.want, got)
		}
	}
}

func testParticle() *Particle {
	return &Particle{
		Origin:      Vec3{X: 10, Y: 20, Z: 1},
		Velocity:    Vec3{X: 2, Y: -4, Z: 0},
		Accel:       Vec3{X: 1, Y: 3, Z: 0.5},
		Start:       4,
		Cycle:       2,
		ScaleStart:  1.0,
		ScaleEnd:    2.0,
		RotateSpeed: 90,
		Content:     Content{Markup: "<b>+12</b>", Style: "crit"},
	}
}

func TestLinearCompute(t *testing.T) {
	pol, err := New(KindLinear)
	if err != nil {
		t.Fatalf("New(linear): %v", err)
	}
	v := pol.Compute(testParticle(), 1.0)

	if !near(v.Position.X, 12) || !near(v.Position.Y, 16) || !near(v.Position.Z, 1) {
		t.Errorf("position: expected (12,16,1), got %+v", v.Position)
	}
	if !near(v.Scale, 1.5) {
		t.Errorf("scale: expected 1.5, got %v", v.Scale)
	}
	if !near(v.Rotation, 90) {
		t.Errorf("rotation: expected 90, got %v", v.Rotation)
	}
	if !near(v.Opacity, 1.0) {
		t.Errorf("opacity: expected 1.0, got %v", v.Opacity)
	}
	if v.Content != (Content{}) {
		t.Errorf("linear policy must not carry content, got %+v", v.Content)
	}
}

func TestAcceleratedUsesLiteralSquareTerm(t *testing.T) {
	pol, err := New(KindAccelerated)
	if err != nil {
		t.Fatalf("New(accelerated): %v", err)
	}
	v := pol.Compute(testParticle(), 1.0)

	// origin + v·e + a·e² with e = 1
	if !near(v.Position.X, 13) || !near(v.Position.Y, 19) || !near(v.Position.Z, 1.5) {
		t.Errorf("position: expected (13,19,1.5), got %+v", v.Position)
	}

	v = pol.Compute(testParticle(), 0.5)
	if !near(v.Position.X, 10+1+0.25) {
		t.Errorf("position.X at e=0.5: expected 11.25, got %v", v.Position.X)
	}
}

func TestLabelCarriesContent(t *testing.T) {
	pol, err := New(KindLabel)
	if err != nil {
		t.Fatalf("New(label): %v", err)
	}
	p := testParticle()
	v := pol.Compute(p, 0.1)
	if v.Content != p.Content {
		t.Errorf("content: expected %+v, got %+v", p.Content, v.Content)
	}
	if !near(v.Opacity, 0.5) {
		t.Errorf("opacity at t=0.05: expected 0.5, got %v", v.Opacity)
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(Kind(42)); !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"linear":      KindLinear,
		"Vapor":       KindLinear,
		"accelerated": KindAccelerated,
		"force":       KindAccelerated,
		" label ":     KindLabel,
		"html":        KindLabel,
	}
	for name, want := range tests {
		got, err := ParseKind(name)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q): expected %v, got %v (%v)", name, want, got, err)
		}
	}
	if _, err := ParseKind("sparkle"); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("ParseKind(sparkle): expected ErrUnsupportedKind, got %v", err)
	}
}

func TestElapsedWrapsAtCycle(t *testing.T) {
	p := testParticle()
	if got := Elapsed(p, 5.5); !near(got, 1.5) {
		t.Errorf("Elapsed(5.5): expected 1.5, got %v", got)
	}
	if got := Elapsed(p, 6.0); !near(got, 0) {
		t.Errorf("Elapsed at cycle end: expected 0, got %v", got)
	}
}
