package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phuocduong/prime-engine/internal/fx/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[engine]
tick_rate = "50ms"
seed = 42

[[systems]]
name = "sparks"
kind = "force"
capacity = 32
asset = "fx/spark.png"
preset = "force"

[[systems]]
name = "numbers"
kind = "label"
capacity = 8

[[emitters]]
system = "sparks"
x = 10
rate = 12.5
burst = 3
lifetime = 4

[data]
presets = "data/yaml/preset_list.yaml"

[stats]
interval_ticks = 10

[logging]
level = "debug"
format = "json"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, int64(42), cfg.Engine.Seed)
	require.Len(t, cfg.Systems, 2)
	assert.Equal(t, "sparks", cfg.Systems[0].Name)
	kind, err := cfg.Systems[0].MotionKind()
	require.NoError(t, err)
	assert.Equal(t, motion.KindAccelerated, kind)

	require.Len(t, cfg.Emitters, 1)
	assert.Equal(t, 12.5, cfg.Emitters[0].Rate)
	assert.Equal(t, 3, cfg.Emitters[0].Burst)
	assert.Equal(t, "data/yaml/preset_list.yaml", cfg.Data.Presets)
	assert.Equal(t, 10, cfg.Stats.IntervalTicks)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Untouched sections keep their defaults
	assert.True(t, cfg.Render.Enabled)
	assert.Equal(t, "*o", cfg.Render.Glyphs)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestParseDefaultsSystems(t *testing.T) {
	cfg, err := Parse([]byte(`[engine]` + "\n" + `seed = 1`))
	require.NoError(t, err)
	require.Len(t, cfg.Systems, 3)
	assert.Equal(t, "vapor", cfg.Systems[0].Name)
	assert.Equal(t, 33*time.Millisecond, cfg.Engine.TickRate)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"bad tick":          "[engine]\ntick_rate = \"0s\"\n",
		"unknown kind":      "[[systems]]\nname = \"a\"\nkind = \"spiral\"\ncapacity = 1\n",
		"zero capacity":     "[[systems]]\nname = \"a\"\nkind = \"linear\"\n",
		"duplicate name":    "[[systems]]\nname = \"a\"\nkind = \"linear\"\ncapacity = 1\n[[systems]]\nname = \"a\"\nkind = \"linear\"\ncapacity = 1\n",
		"emitter target":    "[[emitters]]\nsystem = \"nope\"\nrate = 1\nburst = 1\n",
		"emitter rate":      "[[emitters]]\nsystem = \"vapor\"\nburst = 1\n",
		"stats interval":    "[stats]\ninterval_ticks = 0\n",
		"malformed toml":    "[engine\n",
		"negative lifetime": "[[emitters]]\nsystem = \"vapor\"\nrate = 1\nburst = 1\nlifetime = -1\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Systems, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	t.Setenv(EnvPath, path)
	assert.Equal(t, path, Path())
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())
}

func TestShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	require.NoError(t, err)
	assert.Len(t, cfg.Systems, 4)
	assert.Len(t, cfg.Emitters, 2)
	assert.Empty(t, cfg.Database.DSN)
}
