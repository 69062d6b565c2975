package strip

import "math"

// RGB is one LED color, 8 bits per channel.
type RGB struct {
	R, G, B uint8
}

// Scale multiplies each channel by f (clamped to [0,1]).
func (c RGB) Scale(f float64) RGB {
	if f <= 0 {
		return RGB{}
	}
	if f >= 1 {
		return c
	}
	return RGB{
		R: uint8(float64(c.R)*f + 0.5),
		G: uint8(float64(c.G)*f + 0.5),
		B: uint8(float64(c.B)*f + 0.5),
	}
}

// FromHSV converts hue (degrees, any range), saturation and value (0..1)
// to an RGB triple.
func FromHSV(h, s, v float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s)
	v = clamp01(v)

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{
		R: uint8((r + m) * 255.0),
		G: uint8((g + m) * 255.0),
		B: uint8((b + m) * 255.0),
	}
}

// Pack writes colors as raw RGB bytes into dst. len(dst) must be 3*len(src).
func Pack(dst []byte, src []RGB) {
	for i, c := range src {
		dst[i*3+0] = c.R
		dst[i*3+1] = c.G
		dst[i*3+2] = c.B
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
