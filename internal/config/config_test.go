package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dxlight/internal/strip"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "disco" }},
		{"zero zones", func(c *Config) { c.ZoneCount = 0 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"smoothing out of range", func(c *Config) { c.Smoothing = 1.5 }},
		{"negative brightness", func(c *Config) { c.Brightness = -0.1 }},
		{"border wider than half the frame", func(c *Config) { c.Border = 0.9 }},
		{"negative border", func(c *Config) { c.Border = -0.1 }},
		{"unknown driver", func(c *Config) { c.Driver = "serial" }},
		{"unknown aspect", func(c *Config) { c.Capture.Aspect = "3:2ish" }},
		{"unknown wiring", func(c *Config) { c.Wiring = "spiral" }},
		{"short custom permutation", func(c *Config) {
			c.Wiring = "custom"
			c.Permutation = []int{0, 1, 2}
		}},
		{"zones not divisible across default layout", func(c *Config) { c.ZoneCount = 35 }},
		{"edge layout does not cover zones", func(c *Config) {
			c.Edges = []SegmentCfg{{Edge: "top", Count: 10}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestEffectiveAppliesModePresets(t *testing.T) {
	c := Default()
	c.Mode = "gaming"
	e := c.Effective()
	assert.Equal(t, 0.10, e.Smoothing)
	assert.Equal(t, 144.0, e.FPS)
	assert.Equal(t, 0.04, e.Border)

	c.Mode = "film"
	e = c.Effective()
	assert.Equal(t, 0.50, e.Smoothing)
	assert.Equal(t, 60.0, e.FPS)

	// Modes without a preset keep the user's values.
	c.Mode = "ambilight"
	c.Smoothing = 0.33
	e = c.Effective()
	assert.Equal(t, 0.33, e.Smoothing)
}

func TestResolveWiring(t *testing.T) {
	c := Default()

	w, err := c.ResolveWiring()
	require.NoError(t, err)
	assert.Equal(t, 11, w[0], "dx wiring reverses the left group")

	c.Wiring = "mirror"
	w, err = c.ResolveWiring()
	require.NoError(t, err)
	assert.Equal(t, 24, w[0])

	c.Wiring = "identity"
	w, err = c.ResolveWiring()
	require.NoError(t, err)
	assert.Equal(t, strip.Identity(36), w)

	c.Wiring = "custom"
	c.ZoneCount = 3
	c.Permutation = []int{2, 0, 1}
	w, err = c.ResolveWiring()
	require.NoError(t, err)
	assert.Equal(t, strip.Wiring{2, 0, 1}, w)
}

func TestStoreRejectsInvalidUpdate(t *testing.T) {
	s := NewStore(Default())
	err := s.Update(func(c *Config) { c.FPS = -1 })
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 90.0, s.Snapshot().FPS, "rejected update must not leak")

	require.NoError(t, s.Update(func(c *Config) { c.Brightness = 0.5 }))
	assert.Equal(t, 0.5, s.Snapshot().Brightness)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Mode = "film"
	c.Brightness = 0.42
	c.Capture.Aspect = "2.39:1"
	require.NoError(t, Save(path, &c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "film", got.Mode)
	assert.Equal(t, 0.42, got.Brightness)
	assert.Equal(t, "2.39:1", got.Capture.Aspect)
	assert.Equal(t, uint16(0x1A86), got.Device.VID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
