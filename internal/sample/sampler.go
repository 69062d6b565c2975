// Package sample reduces a captured frame's border band to per-zone colors
// and smooths them over time.
package sample

import (
	"fmt"
	"image"

	"github.com/example/dxlight/internal/strip"
)

// Edge names one side of the frame.
type Edge string

const (
	Left   Edge = "left"
	Top    Edge = "top"
	Right  Edge = "right"
	Bottom Edge = "bottom"
)

// Segment is one run of zones along an edge. Arcs are laid out left-to-right
// (horizontal edges) or top-to-bottom (vertical edges); Reverse flips the
// zone order within the run to match the traversal direction.
type Segment struct {
	Edge    Edge
	Count   int
	Reverse bool
}

// DXLayout is the stock DX-Light traversal: left edge bottom-to-top, top
// edge left-to-right, right edge top-to-bottom, perEdge zones each.
func DXLayout(perEdge int) []Segment {
	return []Segment{
		{Edge: Left, Count: perEdge, Reverse: true},
		{Edge: Top, Count: perEdge},
		{Edge: Right, Count: perEdge},
	}
}

// DefaultBand is the border band width as a fraction of the shorter frame
// dimension.
const DefaultBand = 0.06

// Sampler partitions the frame's perimeter band into zones and reduces each
// zone to its arithmetic mean color.
type Sampler struct {
	segs []Segment
	band float64
	n    int
}

// New validates the edge layout. bandFrac <= 0 uses DefaultBand.
func New(segs []Segment, bandFrac float64) (*Sampler, error) {
	if bandFrac <= 0 {
		bandFrac = DefaultBand
	}
	if bandFrac > 0.5 {
		return nil, fmt.Errorf("band fraction %v exceeds half the frame", bandFrac)
	}
	n := 0
	for _, s := range segs {
		switch s.Edge {
		case Left, Top, Right, Bottom:
		default:
			return nil, fmt.Errorf("unknown edge %q", s.Edge)
		}
		if s.Count <= 0 {
			return nil, fmt.Errorf("segment on %s edge has count %d", s.Edge, s.Count)
		}
		n += s.Count
	}
	if n == 0 {
		return nil, fmt.Errorf("no zones configured")
	}
	return &Sampler{segs: segs, band: bandFrac, n: n}, nil
}

// Zones is the total zone count across all segments.
func (s *Sampler) Zones() int { return s.n }

// Sample fills dst (len = Zones()) with the mean color of each zone's band
// region. Zones on a frame too small to partition share source pixels rather
// than going empty.
func (s *Sampler) Sample(img *image.RGBA, dst []strip.RGB) error {
	if len(dst) != s.n {
		return fmt.Errorf("dst length %d, want %d zones", len(dst), s.n)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return fmt.Errorf("empty frame")
	}
	short := w
	if h < short {
		short = h
	}
	band := int(float64(short) * s.band)
	if band < 1 {
		band = 1
	}

	idx := 0
	for _, seg := range s.segs {
		var region image.Rectangle
		vertical := false
		switch seg.Edge {
		case Left:
			region = image.Rect(b.Min.X, b.Min.Y, b.Min.X+band, b.Max.Y)
			vertical = true
		case Right:
			region = image.Rect(b.Max.X-band, b.Min.Y, b.Max.X, b.Max.Y)
			vertical = true
		case Top:
			region = image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+band)
		case Bottom:
			region = image.Rect(b.Min.X, b.Max.Y-band, b.Max.X, b.Max.Y)
		}
		for k := 0; k < seg.Count; k++ {
			arc := arcRect(region, k, seg.Count, vertical)
			zone := idx + k
			if seg.Reverse {
				zone = idx + seg.Count - 1 - k
			}
			dst[zone] = meanRect(img, arc)
		}
		idx += seg.Count
	}
	return nil
}

// arcRect slices region into count arcs along its long axis and returns arc
// k. When the span is shorter than count, arcs overlap on a clamped single
// row/column so no arc is ever empty.
func arcRect(region image.Rectangle, k, count int, vertical bool) image.Rectangle {
	span := region.Dx()
	if vertical {
		span = region.Dy()
	}
	a0 := k * span / count
	a1 := (k + 1) * span / count
	if a1 <= a0 {
		if a0 > span-1 {
			a0 = span - 1
		}
		a1 = a0 + 1
	}
	if vertical {
		return image.Rect(region.Min.X, region.Min.Y+a0, region.Max.X, region.Min.Y+a1)
	}
	return image.Rect(region.Min.X+a0, region.Min.Y, region.Min.X+a1, region.Max.Y)
}

// meanRect averages all pixels in r, accumulating over raw rows rather than
// per-pixel At calls; this is the hot path at large captures.
func meanRect(img *image.RGBA, r image.Rectangle) strip.RGB {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return strip.RGB{}
	}
	var sr, sg, sb uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			sr += uint64(row[i])
			sg += uint64(row[i+1])
			sb += uint64(row[i+2])
		}
	}
	n := uint64(r.Dx() * r.Dy())
	return strip.RGB{
		R: uint8((sr + n/2) / n),
		G: uint8((sg + n/2) / n),
		B: uint8((sb + n/2) / n),
	}
}
