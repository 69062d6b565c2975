// Package mode holds the pipeline's mode state machine: which color source
// feeds the strip each tick and which preset parameters apply.
package mode

import "fmt"

// Mode selects the active color-generation strategy.
type Mode string

const (
	Ambilight  Mode = "ambilight"
	Gaming     Mode = "gaming"
	Film       Mode = "film"
	Static     Mode = "static"
	Rainbow    Mode = "rainbow"
	Breathing  Mode = "breathing"
	ColorCycle Mode = "colorcycle"
)

// Parse normalizes a mode name from config or a control command.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Ambilight, Gaming, Film, Static, Rainbow, Breathing, ColorCycle:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Live reports whether the mode drives the screen-capture path. Live modes
// share one code path and differ only in preset parameters.
func (m Mode) Live() bool {
	switch m {
	case Ambilight, Gaming, Film:
		return true
	}
	return false
}

// Preset is the parameter overlay a live mode applies on top of the user's
// configured values.
type Preset struct {
	Smoothing float64 // smoothing strength 0..1
	FPS       float64
	Border    float64 // band width as fraction of the shorter dimension
}

// Preset returns the overlay for m, if it has one. Gaming is reactive with
// a narrow band; Film is slow and wide.
func (m Mode) Preset() (Preset, bool) {
	switch m {
	case Gaming:
		return Preset{Smoothing: 0.10, FPS: 144, Border: 0.04}, true
	case Film:
		return Preset{Smoothing: 0.50, FPS: 60, Border: 0.10}, true
	}
	return Preset{}, false
}
