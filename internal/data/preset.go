package data

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Range is a closed interval sampled uniformly. Min == Max yields a constant.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// UnmarshalYAML accepts either a scalar constant or a {min, max} mapping.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		r.Min, r.Max = v, v
		return nil
	}
	type plain Range
	return node.Decode((*plain)(r))
}

// MarshalYAML writes a constant range as a scalar.
func (r Range) MarshalYAML() (any, error) {
	if r.Min == r.Max {
		return r.Min, nil
	}
	type plain Range
	return plain(r), nil
}

// Sample draws a value from the range.
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Preset holds the randomized spawn parameters used by AddAt.
type Preset struct {
	Name        string
	VelocityX   Range
	VelocityY   Range
	VelocityZ   Range
	AccelX      Range
	AccelY      Range
	AccelZ      Range
	Cycle       Range
	ScaleStart  Range
	ScaleEnd    Range
	RotateSpeed Range // per second
	Markup      string
	Style       string
}

// --- YAML loading ---

type presetEntry struct {
	Name        string   `yaml:"name"`
	Velocity    [3]Range `yaml:"velocity"`
	Accel       [3]Range `yaml:"accel"`
	Cycle       Range    `yaml:"cycle"`
	ScaleStart  Range    `yaml:"scale_start"`
	ScaleEnd    Range    `yaml:"scale_end"`
	RotateSpeed Range    `yaml:"rotate_speed"`
	Markup      string   `yaml:"markup,omitempty"`
	Style       string   `yaml:"style,omitempty"`
}

type presetListFile struct {
	Presets []presetEntry `yaml:"presets"`
}

// PresetTable holds all effect presets indexed by name.
type PresetTable struct {
	presets map[string]*Preset
}

// Get returns the preset with the given name, or nil if not found.
func (t *PresetTable) Get(name string) *Preset {
	return t.presets[name]
}

// Count returns the number of loaded presets.
func (t *PresetTable) Count() int {
	return len(t.presets)
}

// Names returns preset names in sorted order.
func (t *PresetTable) Names() []string {
	names := make([]string, 0, len(t.presets))
	for n := range t.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadPresetTable loads effect presets from a YAML file on top of the
// built-in defaults. An empty path yields the defaults only.
func LoadPresetTable(path string) (*PresetTable, error) {
	t := DefaultPresets()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset_list: %w", err)
	}
	if err := t.merge(raw); err != nil {
		return nil, fmt.Errorf("parse preset_list: %w", err)
	}
	return t, nil
}

// ParsePresetTable parses YAML preset data on top of the built-in defaults.
func ParsePresetTable(raw []byte) (*PresetTable, error) {
	t := DefaultPresets()
	if err := t.merge(raw); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *PresetTable) merge(raw []byte) error {
	var f presetListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	for _, e := range f.Presets {
		if e.Name == "" {
			return fmt.Errorf("preset without name")
		}
		if e.Cycle.Min <= 0 {
			return fmt.Errorf("preset %q: cycle must be positive", e.Name)
		}
		t.presets[e.Name] = &Preset{
			Name:        e.Name,
			VelocityX:   e.Velocity[0],
			VelocityY:   e.Velocity[1],
			VelocityZ:   e.Velocity[2],
			AccelX:      e.Accel[0],
			AccelY:      e.Accel[1],
			AccelZ:      e.Accel[2],
			Cycle:       e.Cycle,
			ScaleStart:  e.ScaleStart,
			ScaleEnd:    e.ScaleEnd,
			RotateSpeed: e.RotateSpeed,
			Markup:      e.Markup,
			Style:       e.Style,
		}
	}
	return nil
}

// MarshalPresetTable writes the table in the preset_list format, sorted by
// name.
func MarshalPresetTable(t *PresetTable) ([]byte, error) {
	f := presetListFile{Presets: make([]presetEntry, 0, t.Count())}
	for _, name := range t.Names() {
		p := t.presets[name]
		f.Presets = append(f.Presets, presetEntry{
			Name:        p.Name,
			Velocity:    [3]Range{p.VelocityX, p.VelocityY, p.VelocityZ},
			Accel:       [3]Range{p.AccelX, p.AccelY, p.AccelZ},
			Cycle:       p.Cycle,
			ScaleStart:  p.ScaleStart,
			ScaleEnd:    p.ScaleEnd,
			RotateSpeed: p.RotateSpeed,
			Markup:      p.Markup,
			Style:       p.Style,
		})
	}
	return yaml.Marshal(&f)
}

// DefaultPresets returns the stock vapor and force presets: a slow upward
// drift lasting 2.0-2.8s with a slight grow and random spin.
func DefaultPresets() *PresetTable {
	spin := Range{Min: -3 * 360, Max: 3 * 360}
	drift := Preset{
		VelocityX:   Range{Min: -50, Max: 50},
		VelocityY:   Range{Min: 180, Max: 240},
		Cycle:       Range{Min: 2.0, Max: 2.8},
		ScaleStart:  Range{Min: 1.0, Max: 1.0},
		ScaleEnd:    Range{Min: 1.2, Max: 1.2},
		RotateSpeed: spin,
	}
	vapor, force := drift, drift
	vapor.Name = "vapor"
	force.Name = "force"

	label := Preset{
		Name:       "label",
		VelocityY:  Range{Min: 30, Max: 30},
		Cycle:      Range{Min: 1.5, Max: 1.5},
		ScaleStart: Range{Min: 1, Max: 1},
		ScaleEnd:   Range{Min: 1, Max: 1},
	}
	return &PresetTable{presets: map[string]*Preset{
		vapor.Name: &vapor,
		force.Name: &force,
		label.Name: &label,
	}}
}
