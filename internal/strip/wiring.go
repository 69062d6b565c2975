package strip

import (
	"errors"
	"fmt"
)

// ErrEncoding reports a zone-count / wiring mismatch. It is a configuration
// invariant violation and fatal to the running pipeline.
var ErrEncoding = errors.New("wiring does not match zone count")

// Wiring maps physical wire position -> logical zone index. The sampling
// traversal and the strip's wiring order rarely agree, so every frame is
// reordered through this permutation before encoding.
type Wiring []int

// NewWiring validates that perm is a permutation of 0..len(perm)-1.
func NewWiring(perm []int) (Wiring, error) {
	seen := make([]bool, len(perm))
	for _, v := range perm {
		if v < 0 || v >= len(perm) {
			return nil, fmt.Errorf("wiring entry %d out of range 0..%d", v, len(perm)-1)
		}
		if seen[v] {
			return nil, fmt.Errorf("wiring entry %d duplicated", v)
		}
		seen[v] = true
	}
	return Wiring(perm), nil
}

// Identity returns the trivial wiring for n zones.
func Identity(n int) Wiring {
	w := make(Wiring, n)
	for i := range w {
		w[i] = i
	}
	return w
}

// DXLight returns the wiring of the DX-Light strip: three equal groups
// (left, top, right), with the left group reversed on the wire. n must be
// divisible by 3.
func DXLight(n int) (Wiring, error) {
	g, err := groupSize(n)
	if err != nil {
		return nil, err
	}
	w := make(Wiring, n)
	for j := 0; j < n; j++ {
		if j < g {
			w[j] = g - 1 - j
		} else {
			w[j] = j
		}
	}
	return w, nil
}

// Mirrored returns the DX-Light wiring with left/right swapped and the top
// run reversed, for strips mounted facing the user.
func Mirrored(n int) (Wiring, error) {
	g, err := groupSize(n)
	if err != nil {
		return nil, err
	}
	w := make(Wiring, n)
	for j := 0; j < n; j++ {
		if j < g {
			w[j] = 2*g + j
		} else {
			w[j] = 3*g - 1 - j
		}
	}
	return w, nil
}

// Map reorders src through w into dst and applies the global brightness
// scalar. Returns ErrEncoding when lengths disagree.
func (w Wiring) Map(dst, src []RGB, brightness float64) error {
	if len(w) != len(src) || len(dst) != len(src) {
		return fmt.Errorf("%w: wiring=%d src=%d dst=%d", ErrEncoding, len(w), len(src), len(dst))
	}
	for j, zone := range w {
		dst[j] = src[zone].Scale(brightness)
	}
	return nil
}

func groupSize(n int) (int, error) {
	if n <= 0 || n%3 != 0 {
		return 0, fmt.Errorf("%w: zone count %d not divisible into 3 edge groups", ErrEncoding, n)
	}
	return n / 3, nil
}
