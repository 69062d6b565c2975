// Package pipeline drives the capture -> reduce -> smooth -> map -> transmit
// loop at the configured frame rate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/dxlight/internal/capture"
	"github.com/example/dxlight/internal/config"
	"github.com/example/dxlight/internal/led"
	"github.com/example/dxlight/internal/mode"
	"github.com/example/dxlight/internal/sample"
	"github.com/example/dxlight/internal/strip"
)

// fpsWindow is how many recent ticks the measured frame rate averages over.
const fpsWindow = 30

// patternStep paces hardware test patterns independently of the frame rate.
const patternStep = 150 * time.Millisecond

// Status is the live state surfaced to the UI/telemetry collaborators.
type Status struct {
	Mode       string     `json:"mode"`
	Connection string     `json:"connection"`
	FPS        float64    `json:"fps"`
	LastError  string     `json:"last_error,omitempty"`
	Colors     [][3]uint8 `json:"colors,omitempty"`
}

// stateful is implemented by drivers that track a connection lifecycle
// (the HID channel); other drivers count as always connected.
type stateful interface {
	State() led.ConnState
}

// Pipeline owns the single tick goroutine. All per-zone state lives here;
// nothing is shared with the settings side except the config store and the
// status snapshot.
type Pipeline struct {
	store *config.Store
	src   capture.Source
	drv   led.Driver

	n        int
	border   float64
	wiring   strip.Wiring
	sampler  *sample.Sampler
	smoother *sample.Smoother

	raw      []strip.RGB
	smoothed []strip.RGB
	mapped   []strip.RGB
	rgb      []byte
	lastGood []strip.RGB
	prevMode mode.Mode

	patMu       sync.Mutex
	pattern     *led.Pattern
	lastPatStep time.Time

	start   time.Time
	periods [fpsWindow]float64
	perIdx  int
	perN    int
	lastT0  time.Time

	statusMu sync.RWMutex
	status   Status
}

// New builds a pipeline from the store's current snapshot. The zone count
// and layout are fixed for the pipeline's lifetime; later snapshots that
// change them force a full sampler/smoother reset.
func New(store *config.Store, src capture.Source, drv led.Driver) (*Pipeline, error) {
	cfg := store.Snapshot()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		store: store,
		src:   src,
		drv:   drv,
		start: time.Now(),
	}
	if err := p.rebuild(cfg.Effective()); err != nil {
		return nil, err
	}
	p.prevMode = mode.Mode(cfg.Mode)
	return p, nil
}

func (p *Pipeline) rebuild(cfg config.Config) error {
	segs, err := cfg.Segments()
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	sampler, err := sample.New(segs, cfg.Border)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	wiring, err := cfg.ResolveWiring()
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	n := cfg.ZoneCount
	p.n = n
	p.border = cfg.Border
	p.sampler = sampler
	p.wiring = wiring
	p.smoother = sample.NewSmoother(n, cfg.Smoothing)
	p.raw = make([]strip.RGB, n)
	p.smoothed = make([]strip.RGB, n)
	p.mapped = make([]strip.RGB, n)
	p.rgb = make([]byte, n*3)
	p.lastGood = make([]strip.RGB, n)
	return nil
}

// Run executes ticks until ctx is cancelled. Cancellation is honored between
// ticks: the in-flight tick always completes, then the driver is closed.
// Only an encoding/configuration invariant violation ends the loop early.
func (p *Pipeline) Run(ctx context.Context) error {
	defer func() {
		if err := p.drv.Close(); err != nil {
			log.Warn().Err(err).Msg("driver close")
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t0 := time.Now()
		p.recordPeriod(t0)
		cfg := p.store.Snapshot().Effective()

		if err := p.tick(ctx, cfg, t0.Sub(p.start).Seconds()); err != nil {
			p.setError(err)
			if errors.Is(err, strip.ErrEncoding) || errors.Is(err, config.ErrInvalid) {
				return err
			}
			log.Warn().Err(err).Msg("tick failed")
		}

		// Pace to the target rate. An overrun tick starts the next one
		// immediately; late frames are dropped, never queued.
		period := time.Duration(float64(time.Second) / cfg.FPS)
		if wait := period - time.Since(t0); wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
	}
}

func (p *Pipeline) tick(ctx context.Context, cfg config.Config, t float64) error {
	m := mode.Mode(cfg.Mode)
	if cfg.ZoneCount != p.n {
		if err := p.rebuild(cfg); err != nil {
			return err
		}
	} else if cfg.Border != p.border {
		segs, err := cfg.Segments()
		if err == nil {
			if smp, err2 := sample.New(segs, cfg.Border); err2 == nil {
				p.sampler = smp
				p.border = cfg.Border
			}
		}
	}
	if m != p.prevMode {
		// Hard cut between modes; only intra-mode frames blend.
		p.smoother.Reset()
		p.prevMode = m
	}

	if p.stepPattern() {
		p.send()
		p.publish(m, "")
		return nil
	}

	var capErr string
	if m.Live() {
		img, err := p.src.Capture(ctx)
		if err != nil {
			// Hold the last-known-good colors; a black frame only before
			// the first successful grab.
			copy(p.raw, p.lastGood)
			capErr = err.Error()
			log.Debug().Err(err).Msg("capture failed; holding last frame")
		} else {
			switch cfg.Capture.Aspect {
			case "":
			case "auto":
				img = capture.CropAuto(img, cfg.Capture.LumaLimit)
			default:
				img = capture.CropRatio(img, capture.Ratios[cfg.Capture.Aspect])
			}
			if err := p.sampler.Sample(img, p.raw); err != nil {
				return err
			}
			copy(p.lastGood, p.raw)
		}
	} else {
		mode.Generate(m, p.raw, t, cfg.EffectParams())
	}

	p.smoother.SetStrength(cfg.Smoothing)
	p.smoother.Apply(p.smoothed, p.raw)

	if err := p.wiring.Map(p.mapped, p.smoothed, cfg.Brightness); err != nil {
		return err
	}
	strip.Pack(p.rgb, p.mapped)
	p.send()
	p.publish(m, capErr)
	return nil
}

// send transmits the current frame; a disconnected device is expected state,
// not an error (the channel reconnects on its own schedule).
func (p *Pipeline) send() {
	if err := p.drv.Write(p.rgb); err != nil && !errors.Is(err, led.ErrDisconnected) &&
		!errors.Is(err, led.ErrDeviceNotFound) && !errors.Is(err, led.ErrDeviceBusy) {
		log.Warn().Err(err).Msg("frame write failed")
	}
}

// RunPattern starts a hardware test pattern; live output resumes when the
// pattern completes. An empty kind cancels.
func (p *Pipeline) RunPattern(kind led.PatternKind) {
	p.patMu.Lock()
	defer p.patMu.Unlock()
	if kind == led.PatternNone {
		p.pattern = nil
		return
	}
	p.pattern = led.NewPattern(kind)
	p.lastPatStep = time.Time{}
}

func (p *Pipeline) stepPattern() bool {
	p.patMu.Lock()
	defer p.patMu.Unlock()
	if p.pattern == nil {
		return false
	}
	now := time.Now()
	if now.Sub(p.lastPatStep) < patternStep {
		return true // hold the current pattern frame
	}
	p.lastPatStep = now
	if !p.pattern.Step(p.n, p.rgb) {
		p.pattern = nil
		return false
	}
	return true
}

// Status returns the most recent status snapshot.
func (p *Pipeline) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

func (p *Pipeline) publish(m mode.Mode, lastErr string) {
	conn := led.Connected
	if sd, ok := p.drv.(stateful); ok {
		conn = sd.State()
	}
	if lastErr == "" {
		if sd, ok := p.drv.(interface{ LastError() error }); ok {
			if err := sd.LastError(); err != nil {
				lastErr = err.Error()
			}
		}
	}
	colors := make([][3]uint8, len(p.mapped))
	for i, c := range p.mapped {
		colors[i] = [3]uint8{c.R, c.G, c.B}
	}
	p.statusMu.Lock()
	p.status = Status{
		Mode:       string(m),
		Connection: conn.String(),
		FPS:        p.measuredFPS(),
		LastError:  lastErr,
		Colors:     colors,
	}
	p.statusMu.Unlock()
}

func (p *Pipeline) recordPeriod(now time.Time) {
	if !p.lastT0.IsZero() {
		p.periods[p.perIdx] = now.Sub(p.lastT0).Seconds()
		p.perIdx = (p.perIdx + 1) % fpsWindow
		if p.perN < fpsWindow {
			p.perN++
		}
	}
	p.lastT0 = now
}

func (p *Pipeline) measuredFPS() float64 {
	if p.perN == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < p.perN; i++ {
		sum += p.periods[i]
	}
	if sum <= 0 {
		return 0
	}
	return float64(p.perN) / sum
}

func (p *Pipeline) setError(err error) {
	p.statusMu.Lock()
	p.status.LastError = err.Error()
	p.statusMu.Unlock()
}
