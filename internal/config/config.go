// Package config defines the engine configuration: a YAML file on disk,
// validated once, then handed to the pipeline as immutable per-tick
// snapshots through a Store.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/dxlight/internal/capture"
	"github.com/example/dxlight/internal/mode"
	"github.com/example/dxlight/internal/sample"
	"github.com/example/dxlight/internal/strip"
)

// ErrInvalid marks a configuration the pipeline must refuse to run with.
var ErrInvalid = errors.New("invalid configuration")

type Device struct {
	VID uint16 `yaml:"vid"`
	PID uint16 `yaml:"pid"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type MQTT struct {
	Enabled   bool    `yaml:"enabled"`
	Broker    string  `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID  string  `yaml:"client_id"`
	Topic     string  `yaml:"topic"`
	IntervalS float64 `yaml:"interval_s"`
}

type Region struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

type Capture struct {
	Display   int     `yaml:"display"`
	Region    Region  `yaml:"region,omitempty"` // zero = whole display
	Aspect    string  `yaml:"aspect"`           // "", "auto", or a named ratio like "21:9"
	LumaLimit float64 `yaml:"luma_limit"`       // letterbox detection threshold, 0 = default
	TimeoutMS int     `yaml:"timeout_ms"`
}

type SegmentCfg struct {
	Edge    string `yaml:"edge"`
	Count   int    `yaml:"count"`
	Reverse bool   `yaml:"reverse,omitempty"`
}

type Effect struct {
	Speed         float64    `yaml:"speed"`          // rainbow drift, degrees/s
	BaseHue       float64    `yaml:"base_hue"`       // degrees
	HueStep       float64    `yaml:"hue_step"`       // degrees per zone, 0 = spread
	Saturation    float64    `yaml:"saturation"`
	Value         float64    `yaml:"value"`
	PeriodS       float64    `yaml:"period_s"`       // breathing
	MinBrightness float64    `yaml:"min_brightness"` // breathing floor
	Palette       [][3]uint8 `yaml:"palette"`        // colorcycle
	DwellS        float64    `yaml:"dwell_s"`
}

type Config struct {
	// Mode is the active (and last-used) mode name. When ResumeLastMode is
	// off the engine starts in ambilight regardless.
	Mode           string `yaml:"mode"`
	ResumeLastMode bool   `yaml:"resume_last_mode"`

	ZoneCount int     `yaml:"zone_count"`
	FPS       float64 `yaml:"fps"`
	// Smoothing is the smoothing STRENGTH: 0 = instant response, values
	// near 1 = slow, cinematic response. The EMA blend factor applied to
	// each raw sample is 1-smoothing.
	Smoothing  float64 `yaml:"smoothing"`
	Brightness float64 `yaml:"brightness"`
	Border     float64 `yaml:"border"` // band width fraction, 0 = default

	// Wiring names the zone->wire permutation: "dx", "mirror", "identity"
	// or "custom" with an explicit permutation list.
	Wiring      string       `yaml:"wiring"`
	Permutation []int        `yaml:"permutation,omitempty"`
	Edges       []SegmentCfg `yaml:"edges,omitempty"` // empty = DX layout

	Capture Capture  `yaml:"capture"`
	Static  [3]uint8 `yaml:"static_color"`
	Effect  Effect   `yaml:"effect"`

	Driver string `yaml:"driver"` // "hid" | "spi" | "sim"
	Device Device `yaml:"device"`
	SPI    SPI    `yaml:"spi,omitempty"`

	Addr string `yaml:"addr"` // status/control HTTP listen address
	MQTT MQTT   `yaml:"mqtt,omitempty"`
}

// Default is the stock 36-LED DX-Light setup.
func Default() Config {
	return Config{
		Mode:           string(mode.Ambilight),
		ResumeLastMode: true,
		ZoneCount:      36,
		FPS:            90,
		Smoothing:      0.25,
		Brightness:     0.8,
		Border:         sample.DefaultBand,
		Wiring:         "dx",
		Capture:        Capture{Aspect: ""},
		Static:         [3]uint8{255, 0, 80},
		Effect: Effect{
			Speed:         36,
			PeriodS:       4,
			MinBrightness: 0.05,
			DwellS:        3,
		},
		Driver: "hid",
		Device: Device{VID: 0x1A86, PID: 0xFE07},
		Addr:   ":8089",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks every invariant the pipeline depends on. A failing config
// is fatal; the pipeline refuses to start rather than running degraded.
func (c *Config) Validate() error {
	if _, err := mode.Parse(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.ZoneCount < 1 {
		return fmt.Errorf("%w: zone_count %d", ErrInvalid, c.ZoneCount)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalid, c.FPS)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 {
		return fmt.Errorf("%w: smoothing %v outside [0,1]", ErrInvalid, c.Smoothing)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("%w: brightness %v outside [0,1]", ErrInvalid, c.Brightness)
	}
	// 0 means default; the sampler rejects bands wider than half the frame.
	if c.Border < 0 || c.Border > 0.5 {
		return fmt.Errorf("%w: border %v outside (0,0.5]", ErrInvalid, c.Border)
	}
	if _, err := c.ResolveWiring(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	segs, err := c.Segments()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	total := 0
	for _, s := range segs {
		total += s.Count
	}
	if total != c.ZoneCount {
		return fmt.Errorf("%w: edge layout covers %d zones, zone_count is %d", ErrInvalid, total, c.ZoneCount)
	}
	if a := c.Capture.Aspect; a != "" && a != "auto" {
		if _, ok := capture.Ratios[a]; !ok {
			return fmt.Errorf("%w: unknown aspect %q", ErrInvalid, a)
		}
	}
	switch c.Driver {
	case "hid", "spi", "sim":
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	}
	return nil
}

// ResolveWiring materializes the configured permutation.
func (c *Config) ResolveWiring() (strip.Wiring, error) {
	switch c.Wiring {
	case "", "dx":
		return strip.DXLight(c.ZoneCount)
	case "mirror":
		return strip.Mirrored(c.ZoneCount)
	case "identity":
		return strip.Identity(c.ZoneCount), nil
	case "custom":
		if len(c.Permutation) != c.ZoneCount {
			return nil, fmt.Errorf("permutation length %d, zone_count %d", len(c.Permutation), c.ZoneCount)
		}
		return strip.NewWiring(c.Permutation)
	}
	return nil, fmt.Errorf("unknown wiring %q", c.Wiring)
}

// Segments returns the edge layout, defaulting to the DX three-edge
// traversal when none is configured.
func (c *Config) Segments() ([]sample.Segment, error) {
	if len(c.Edges) == 0 {
		if c.ZoneCount%3 != 0 {
			return nil, fmt.Errorf("zone_count %d not divisible across the default 3-edge layout", c.ZoneCount)
		}
		return sample.DXLayout(c.ZoneCount / 3), nil
	}
	segs := make([]sample.Segment, len(c.Edges))
	for i, e := range c.Edges {
		segs[i] = sample.Segment{Edge: sample.Edge(e.Edge), Count: e.Count, Reverse: e.Reverse}
	}
	return segs, nil
}

// EffectParams adapts the effect section for the mode generators.
func (c *Config) EffectParams() mode.EffectParams {
	p := mode.EffectParams{
		Color:         strip.RGB{R: c.Static[0], G: c.Static[1], B: c.Static[2]},
		BaseHue:       c.Effect.BaseHue,
		HueStep:       c.Effect.HueStep,
		Speed:         c.Effect.Speed,
		Saturation:    c.Effect.Saturation,
		Value:         c.Effect.Value,
		PeriodS:       c.Effect.PeriodS,
		MinBrightness: c.Effect.MinBrightness,
		DwellS:        c.Effect.DwellS,
	}
	for _, pc := range c.Effect.Palette {
		p.Palette = append(p.Palette, strip.RGB{R: pc[0], G: pc[1], B: pc[2]})
	}
	return p
}

// Effective applies the active mode's preset overlay (smoothing, fps,
// border) on top of the user values. Called once per tick on the snapshot.
func (c Config) Effective() Config {
	m, err := mode.Parse(c.Mode)
	if err != nil {
		return c
	}
	if p, ok := m.Preset(); ok {
		c.Smoothing = p.Smoothing
		c.FPS = p.FPS
		c.Border = p.Border
	}
	return c
}
