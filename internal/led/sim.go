package led

import (
	"fmt"
	"image"
	"image/color"

	screen "periph.io/x/devices/v3/screen1d"
)

// Sim renders the strip as a row of ANSI color blocks on the console, so the
// whole pipeline runs without hardware attached.
type Sim struct {
	dev *screen.Dev
	img *image.NRGBA
	n   int
}

// NewSim returns a console strip of count LEDs.
func NewSim(count int) *Sim {
	return &Sim{
		dev: screen.New(&screen.Opts{X: count}),
		img: image.NewNRGBA(image.Rect(0, 0, count, 1)),
		n:   count,
	}
}

func (s *Sim) Write(rgb []byte) error {
	if len(rgb) != s.n*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.n)
	}
	for i := 0; i < s.n; i++ {
		s.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 255})
	}
	return s.dev.Draw(s.dev.Bounds(), s.img, image.Point{})
}

func (s *Sim) Close() error {
	return s.dev.Halt()
}
