package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/dxlight/internal/strip"
)

func TestRainbowSpreadAtStart(t *testing.T) {
	dst := make([]strip.RGB, 4)
	Generate(Rainbow, dst, 0, EffectParams{HueStep: 90, Saturation: 1, Value: 1})

	for i, hue := range []float64{0, 90, 180, 270} {
		assert.Equal(t, strip.FromHSV(hue, 1, 1), dst[i], "zone %d", i)
	}
}

func TestRainbowDriftsWithTime(t *testing.T) {
	dst := make([]strip.RGB, 1)
	p := EffectParams{HueStep: 360, Speed: 90, Saturation: 1, Value: 1}
	Generate(Rainbow, dst, 1, p)
	assert.Equal(t, strip.FromHSV(90, 1, 1), dst[0])
}

func TestBreathingFloorAndPeak(t *testing.T) {
	white := strip.RGB{R: 255, G: 255, B: 255}
	p := EffectParams{Color: white, PeriodS: 4, MinBrightness: 0.2}

	dst := make([]strip.RGB, 2)
	// sin peaks at t = period/4, troughs at 3*period/4.
	Generate(Breathing, dst, 1, p)
	assert.Equal(t, white, dst[0])
	assert.Equal(t, dst[0], dst[1], "breathing is uniform across zones")

	Generate(Breathing, dst, 3, p)
	assert.Equal(t, white.Scale(0.2), dst[0], "trough holds the configured floor")
}

func TestColorCycleDwellAndWrap(t *testing.T) {
	p := EffectParams{
		Palette: []strip.RGB{{R: 255}, {G: 255}},
		DwellS:  2,
	}
	dst := make([]strip.RGB, 1)

	Generate(ColorCycle, dst, 0, p)
	assert.Equal(t, strip.RGB{R: 255}, dst[0])

	Generate(ColorCycle, dst, 1, p)
	assert.Equal(t, strip.RGB{R: 128, G: 128}, dst[0], "halfway between entries")

	Generate(ColorCycle, dst, 2, p)
	assert.Equal(t, strip.RGB{G: 255}, dst[0])

	Generate(ColorCycle, dst, 4, p)
	assert.Equal(t, strip.RGB{R: 255}, dst[0], "wraps back to the first entry")
}

func TestStaticFillsConfiguredColor(t *testing.T) {
	want := strip.RGB{R: 255, B: 80}
	dst := make([]strip.RGB, 3)
	Generate(Static, dst, 42, EffectParams{Color: want})
	for _, c := range dst {
		assert.Equal(t, want, c)
	}
}
