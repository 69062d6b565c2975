package led

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	hidapi "github.com/sstallion/go-hid"
)

// DX-Light USB identifiers.
const (
	DefaultVendorID  uint16 = 0x1A86
	DefaultProductID uint16 = 0xFE07
)

// Reconnect backoff bounds.
const (
	backoffInitial = 200 * time.Millisecond
	backoffMax     = 5 * time.Second
)

var (
	// ErrDeviceNotFound means no device with the configured VID/PID is present.
	ErrDeviceNotFound = errors.New("hid device not found")
	// ErrDeviceBusy means the device exists but could not be opened.
	ErrDeviceBusy = errors.New("hid device busy")
	// ErrDisconnected means the connection is down; sends are suppressed
	// until a reconnect attempt succeeds.
	ErrDisconnected = errors.New("hid device disconnected")
)

// ConnState is the connection lifecycle of the HID channel.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// transport is the writable half of an open HID handle.
type transport interface {
	Write(p []byte) (int, error)
	Close() error
}

// openFunc opens a transport for vid/pid. Swapped out in tests.
type openFunc func(vid, pid uint16) (transport, error)

// HID owns the USB connection to the strip. Write failures flip the channel
// to Disconnected without retrying the failed frame; the next Write attempts
// a reconnect, paced by exponential backoff.
type HID struct {
	vid, pid uint16
	enc      *Encoder
	open     openFunc
	now      func() time.Time

	mu      sync.Mutex
	dev     transport
	state   ConnState
	backoff time.Duration
	nextTry time.Time
	lastErr error
}

// NewHID returns a channel for an n-LED strip at vid/pid. No connection is
// made until the first Write (or Connect).
func NewHID(vid, pid uint16, n int) (*HID, error) {
	enc, err := NewEncoder(n)
	if err != nil {
		return nil, err
	}
	return &HID{
		vid:     vid,
		pid:     pid,
		enc:     enc,
		open:    openHID,
		now:     time.Now,
		state:   Disconnected,
		backoff: backoffInitial,
	}, nil
}

// State reports the current connection state.
func (h *HID) State() ConnState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// LastError reports the error that caused the most recent disconnect, if any.
func (h *HID) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Connect opens the device immediately, bypassing the backoff gate.
func (h *HID) Connect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectLocked()
}

// Write encodes and transmits one frame (len 3*N, wire order). While
// disconnected it attempts a reconnect when the backoff window has elapsed
// and otherwise returns ErrDisconnected without touching the device.
func (h *HID) Write(rgb []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Connected {
		if h.now().Before(h.nextTry) {
			return ErrDisconnected
		}
		if err := h.connectLocked(); err != nil {
			return err
		}
	}

	frame, err := h.enc.Encode(rgb)
	if err != nil {
		return err
	}
	for _, rep := range Reports(frame) {
		if _, err := h.dev.Write(rep); err != nil {
			h.dropLocked(err)
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
	}
	return nil
}

// Close blanks the strip best-effort and releases the handle.
func (h *HID) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev == nil {
		return nil
	}
	if frame, err := h.enc.Encode(make([]byte, h.enc.n*3)); err == nil {
		for _, rep := range Reports(frame) {
			if _, err := h.dev.Write(rep); err != nil {
				break
			}
		}
	}
	err := h.dev.Close()
	h.dev = nil
	h.state = Disconnected
	return err
}

func (h *HID) connectLocked() error {
	h.state = Connecting
	dev, err := h.open(h.vid, h.pid)
	if err != nil {
		h.state = Disconnected
		h.lastErr = err
		h.nextTry = h.now().Add(h.backoff)
		h.backoff *= 2
		if h.backoff > backoffMax {
			h.backoff = backoffMax
		}
		return err
	}
	h.dev = dev
	h.state = Connected
	h.backoff = backoffInitial
	h.lastErr = nil
	log.Info().
		Str("vid", fmt.Sprintf("%04x", h.vid)).
		Str("pid", fmt.Sprintf("%04x", h.pid)).
		Msg("hid device connected")
	return nil
}

func (h *HID) dropLocked(cause error) {
	if h.dev != nil {
		_ = h.dev.Close()
		h.dev = nil
	}
	h.state = Disconnected
	h.lastErr = cause
	h.nextTry = h.now().Add(h.backoff)
	h.backoff *= 2
	if h.backoff > backoffMax {
		h.backoff = backoffMax
	}
	log.Warn().Err(cause).Msg("hid write failed; device disconnected")
}

// openHID opens the first matching device via hidapi. Presence is checked
// first so a missing device and a claimed device report differently.
func openHID(vid, pid uint16) (transport, error) {
	if err := hidapi.Init(); err != nil {
		return nil, fmt.Errorf("hidapi init: %w", err)
	}
	found := false
	_ = hidapi.Enumerate(vid, pid, func(info *hidapi.DeviceInfo) error {
		found = true
		return nil
	})
	if !found {
		return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, vid, pid)
	}
	dev, err := hidapi.OpenFirst(vid, pid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	}
	return dev, nil
}
