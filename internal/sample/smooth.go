package sample

import "github.com/example/dxlight/internal/strip"

// Smoother blends each zone's color sequence with a per-channel exponential
// moving average to suppress flicker.
//
// Convention: strength is the smoothing STRENGTH in [0,1] — 0 follows the
// raw signal instantly, values near 1 respond slowly ("high smoothing" =
// cinematic). The blend factor applied to the raw sample each tick is
// 1-strength.
type Smoother struct {
	strength float64
	state    [][3]float64
	primed   bool
}

// NewSmoother returns a smoother for n zones, unprimed: the first sample
// passes through unchanged.
func NewSmoother(n int, strength float64) *Smoother {
	s := &Smoother{state: make([][3]float64, n)}
	s.SetStrength(strength)
	return s
}

// SetStrength updates the smoothing strength, clamped to [0,1].
func (s *Smoother) SetStrength(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.strength = v
}

// Reset discards history; the next Apply seeds state from the raw sample.
// Called on mode switches and zone-count changes so no blending crosses the
// discontinuity.
func (s *Smoother) Reset() { s.primed = false }

// Apply writes the smoothed colors into dst. raw and dst must both have the
// smoother's zone count (dst may alias raw).
func (s *Smoother) Apply(dst, raw []strip.RGB) {
	if len(raw) != len(s.state) {
		s.state = make([][3]float64, len(raw))
		s.primed = false
	}
	if !s.primed {
		for i, c := range raw {
			s.state[i] = [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		}
		s.primed = true
	} else {
		f := 1 - s.strength
		for i, c := range raw {
			s.state[i][0] += (float64(c.R) - s.state[i][0]) * f
			s.state[i][1] += (float64(c.G) - s.state[i][1]) * f
			s.state[i][2] += (float64(c.B) - s.state[i][2]) * f
		}
	}
	for i := range s.state {
		dst[i] = strip.RGB{
			R: clampByte(s.state[i][0]),
			G: clampByte(s.state[i][1]),
			B: clampByte(s.state[i][2]),
		}
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
