package sample

import (
	"testing"

	"github.com/example/dxlight/internal/strip"
)

func TestSmootherFirstSamplePassesThrough(t *testing.T) {
	s := NewSmoother(1, 0.9)
	raw := []strip.RGB{{R: 200, G: 100, B: 50}}
	dst := make([]strip.RGB, 1)
	s.Apply(dst, raw)
	if dst[0] != raw[0] {
		t.Fatalf("unprimed apply = %v, want %v", dst[0], raw[0])
	}
}

func TestSmootherZeroStrengthIsInstant(t *testing.T) {
	s := NewSmoother(1, 0)
	dst := make([]strip.RGB, 1)
	s.Apply(dst, []strip.RGB{{}})
	s.Apply(dst, []strip.RGB{{R: 255}})
	if dst[0] != (strip.RGB{R: 255}) {
		t.Fatalf("strength 0 should track raw instantly, got %v", dst[0])
	}
}

func TestSmootherConvergesWithoutOvershoot(t *testing.T) {
	s := NewSmoother(1, 0.5)
	dst := make([]strip.RGB, 1)
	s.Apply(dst, []strip.RGB{{}})

	target := []strip.RGB{{R: 255}}
	prev := uint8(0)
	for i := 0; i < 30; i++ {
		s.Apply(dst, target)
		if dst[0].R < prev {
			t.Fatalf("step %d: value regressed %d -> %d", i, prev, dst[0].R)
		}
		prev = dst[0].R
	}
	if prev != 255 {
		t.Fatalf("did not converge, stuck at %d", prev)
	}
}

func TestSmootherResetDropsHistory(t *testing.T) {
	s := NewSmoother(1, 0.95)
	dst := make([]strip.RGB, 1)
	s.Apply(dst, []strip.RGB{{R: 255}})
	s.Reset()
	s.Apply(dst, []strip.RGB{{B: 255}})
	if dst[0] != (strip.RGB{B: 255}) {
		t.Fatalf("post-reset apply = %v, want pure blue", dst[0])
	}
}

func TestSmootherReseedsOnZoneCountChange(t *testing.T) {
	s := NewSmoother(2, 0.95)
	dst2 := make([]strip.RGB, 2)
	s.Apply(dst2, []strip.RGB{{R: 255}, {R: 255}})

	dst3 := make([]strip.RGB, 3)
	raw3 := []strip.RGB{{G: 255}, {G: 255}, {G: 255}}
	s.Apply(dst3, raw3)
	for i, c := range dst3 {
		if c != raw3[i] {
			t.Fatalf("zone %d = %v, want reseeded %v", i, c, raw3[i])
		}
	}
}

func TestSmootherStrengthClamped(t *testing.T) {
	s := NewSmoother(1, 5)
	if s.strength != 1 {
		t.Fatalf("strength = %v, want clamp to 1", s.strength)
	}
	s.SetStrength(-1)
	if s.strength != 0 {
		t.Fatalf("strength = %v, want clamp to 0", s.strength)
	}
}
