package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30000, cfg.Field.Count)
	assert.InDelta(t, 0.8, cfg.Field.InfluenceRatio, 1e-9)
	assert.InDelta(t, 2.5, cfg.Field.Range, 1e-9)
	assert.InDelta(t, 0.025, cfg.Field.Size, 1e-9)
	assert.Len(t, cfg.Field.Colors, 4)
	assert.InDelta(t, 0.1, cfg.Pointer.Smoothing, 1e-9)
	assert.Equal(t, "scalar", cfg.Physics.Kernel)
}

func TestDerivedPalette(t *testing.T) {
	cfg := Default()
	require.Len(t, cfg.Derived.Palette, 4)

	// #4285F4
	blue := cfg.Derived.Palette[0]
	assert.InDelta(t, 0x42/255.0, blue.R, 1e-6)
	assert.InDelta(t, 0x85/255.0, blue.G, 1e-6)
	assert.InDelta(t, 0xF4/255.0, blue.B, 1e-6)

	assert.Equal(t, float32(2.5), cfg.Derived.Range32)
	assert.Equal(t, 600, cfg.Derived.StatsFrames)
}

func TestParseOverridesOnlyPresentFields(t *testing.T) {
	cfg, err := Parse([]byte("field:\n  count: 500\n"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Field.Count)
	assert.InDelta(t, 0.8, cfg.Field.InfluenceRatio, 1e-9, "unset fields keep defaults")
	assert.Len(t, cfg.Field.Colors, 4)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero count", "field:\n  count: 0\n"},
		{"negative count", "field:\n  count: -5\n"},
		{"empty palette", "field:\n  colors: []\n"},
		{"bad hex", "field:\n  colors: [\"#zzzzzz\"]\n"},
		{"zero range", "field:\n  range: 0\n"},
		{"negative size", "field:\n  size: -1\n"},
		{"ratio above one", "field:\n  influence_ratio: 1.5\n"},
		{"unknown kernel", "physics:\n  kernel: simd\n"},
		{"zero smoothing", "pointer:\n  smoothing: 0\n"},
		{"inverted clip", "camera:\n  near: 10\n  far: 1\n"},
		{"on-screen sentinel", "pointer:\n  sentinel: 0\n"},
		{"sentinel at edge", "pointer:\n  sentinel: -1\n"},
		{"miss point at origin", "pointer:\n  miss_point: 0\n"},
		{"miss point inside range", "pointer:\n  miss_point: 6\n"},
		{"friction above one", "physics:\n  friction: 1.5\n"},
		{"friction of one", "physics:\n  friction: 1\n"},
		{"negative friction", "physics:\n  friction: -0.1\n"},
		{"negative repulsion", "physics:\n  repulsion: -0.04\n"},
		{"negative restore", "physics:\n  restore: -0.01\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestMissPointClearOfField(t *testing.T) {
	// Nearest corner of the rest region is (7.5,5,5)
	assert.Zero(t, missDistance(5))
	assert.InDelta(t, math.Sqrt(0.25+9+9), missDistance(8), 1e-9)
	assert.Equal(t, missDistance(-20), missDistance(20))

	cfg, err := Parse([]byte("pointer:\n  miss_point: 20\n"))
	require.NoError(t, err)
	assert.InDelta(t, 20, cfg.Pointer.MissPoint, 1e-9)
}

func TestPrepareRecomputesDerived(t *testing.T) {
	cfg := Default()
	cfg.Field.Range = 0.5
	cfg.Field.Colors = []string{"#ffffff"}
	require.NoError(t, cfg.Prepare())

	assert.Equal(t, float32(0.5), cfg.Derived.Range32)
	assert.Equal(t, []RGB{{R: 1, G: 1, B: 1}}, cfg.Derived.Palette)

	cfg.Field.Colors = []string{"not-a-color"}
	assert.ErrorIs(t, cfg.Prepare(), ErrInvalidConfig)
}

func TestLoadAndWriteYAMLRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("field:\n  range: 3.5\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, cfg.Field.Range, 1e-9)

	out := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, cfg.WriteYAML(out))

	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Field, again.Field)
	assert.Equal(t, cfg.Physics, again.Physics)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
