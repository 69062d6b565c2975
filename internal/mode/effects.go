package mode

import (
	"math"

	"github.com/example/dxlight/internal/strip"
)

// EffectParams carries the knobs for the procedural modes. Zero values fall
// back to sensible defaults at generation time.
type EffectParams struct {
	Color strip.RGB // static / breathing base color

	BaseHue    float64 // rainbow start hue, degrees
	HueStep    float64 // per-zone hue offset, degrees; 0 = spread over strip
	Speed      float64 // rainbow hue drift, degrees per second
	Saturation float64 // rainbow S, 0 treated as 1
	Value      float64 // rainbow V, 0 treated as 1

	PeriodS       float64 // breathing period, seconds
	MinBrightness float64 // breathing floor, 0..1

	Palette []strip.RGB // colorcycle palette, in order
	DwellS  float64     // seconds per palette entry
}

// Generate fills dst for a non-live mode at elapsed time t (seconds). Each
// variant is a pure function of t and its parameters.
func Generate(m Mode, dst []strip.RGB, t float64, p EffectParams) {
	switch m {
	case Static:
		generateStatic(dst, p)
	case Rainbow:
		generateRainbow(dst, t, p)
	case Breathing:
		generateBreathing(dst, t, p)
	case ColorCycle:
		generateColorCycle(dst, t, p)
	default:
		for i := range dst {
			dst[i] = strip.RGB{}
		}
	}
}

func generateStatic(dst []strip.RGB, p EffectParams) {
	for i := range dst {
		dst[i] = p.Color
	}
}

// generateRainbow: zone hue = (base + i*step + t*speed) mod 360. A zero step
// spreads one full cycle across the strip.
func generateRainbow(dst []strip.RGB, t float64, p EffectParams) {
	step := p.HueStep
	if step == 0 && len(dst) > 0 {
		step = 360.0 / float64(len(dst))
	}
	sat := orOne(p.Saturation)
	val := orOne(p.Value)
	speed := p.Speed
	if speed == 0 {
		speed = 36 // one cycle every ten seconds
	}
	for i := range dst {
		dst[i] = strip.FromHSV(p.BaseHue+float64(i)*step+t*speed, sat, val)
	}
}

// generateBreathing maps sin(2πt/period) into [MinBrightness, 1] and scales
// the configured color.
func generateBreathing(dst []strip.RGB, t float64, p EffectParams) {
	period := p.PeriodS
	if period <= 0 {
		period = 4
	}
	floor := p.MinBrightness
	if floor < 0 {
		floor = 0
	}
	if floor > 1 {
		floor = 1
	}
	pulse := (math.Sin(t*2*math.Pi/period) + 1) / 2
	v := floor + (1-floor)*pulse
	c := p.Color.Scale(v)
	for i := range dst {
		dst[i] = c
	}
}

// generateColorCycle walks the palette with DwellS seconds per entry,
// interpolating linearly between neighbors and wrapping.
func generateColorCycle(dst []strip.RGB, t float64, p EffectParams) {
	pal := p.Palette
	if len(pal) == 0 {
		pal = []strip.RGB{{R: 255}, {G: 255}, {B: 255}}
	}
	dwell := p.DwellS
	if dwell <= 0 {
		dwell = 3
	}
	pos := math.Mod(t/dwell, float64(len(pal)))
	if pos < 0 {
		pos += float64(len(pal))
	}
	i := int(pos)
	frac := pos - float64(i)
	a := pal[i]
	b := pal[(i+1)%len(pal)]
	c := strip.RGB{
		R: lerpByte(a.R, b.R, frac),
		G: lerpByte(a.G, b.G, frac),
		B: lerpByte(a.B, b.B, frac),
	}
	for j := range dst {
		dst[j] = c
	}
}

func lerpByte(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	if v > 1 {
		return 1
	}
	return v
}
