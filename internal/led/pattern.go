package led

// Hardware test patterns, runnable from the control socket to verify zone
// wiring after installation.

type PatternKind string

const (
	PatternNone PatternKind = ""
	// IndexSweep lights one LED at a time in wire order.
	IndexSweep PatternKind = "index_sweep"
	// RGBChannels cycles the whole strip through pure R, G, B.
	RGBChannels PatternKind = "rgb_channels"
	// GroupSweep lights the three edge groups red/green/blue at once
	// (left, top, right on the stock strip).
	GroupSweep PatternKind = "group_sweep"
)

type Pattern struct {
	kind PatternKind
	step int
}

func NewPattern(kind PatternKind) *Pattern { return &Pattern{kind: kind} }

func (p *Pattern) Kind() PatternKind { return p.kind }

// Step fills rgb (len 3*n) for the current step; returns false when the
// pattern has completed.
func (p *Pattern) Step(n int, rgb []byte) bool {
	for i := range rgb {
		rgb[i] = 0
	}
	switch p.kind {
	case IndexSweep:
		if p.step >= n {
			return false
		}
		rgb[p.step*3+0], rgb[p.step*3+1], rgb[p.step*3+2] = 255, 255, 255
	case RGBChannels:
		if p.step >= 3 {
			return false
		}
		for i := 0; i < n; i++ {
			rgb[i*3+p.step] = 255
		}
	case GroupSweep:
		if p.step >= 1 || n%3 != 0 {
			return false
		}
		g := n / 3
		for i := 0; i < n; i++ {
			rgb[i*3+(i/g)] = 255
		}
	default:
		return false
	}
	p.step++
	return true
}
