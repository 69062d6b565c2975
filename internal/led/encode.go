package led

import (
	"fmt"

	"github.com/example/dxlight/internal/strip"
)

// DX-Light wire protocol (Robobloq monitor backlight, VID 0x1A86 PID 0xFE07).
// A frame is a fixed-size buffer sent as consecutive 64-byte HID output
// reports:
//
//	buf[0..6]  header 53 43 00 B1 cc 80 01, cc = free-running frame counter
//	buf[7..9]  RGB of wire position 0
//	then 3 blocks of G entries, 5 bytes each: two running counter bytes
//	followed by RGB. The blocks start at wire positions 1, G and 2*G, so
//	position G is transmitted twice — the firmware inherits this overlap
//	from the vendor's C++ layout and expects it verbatim.
const (
	reportSize = 64
	headerLen  = 7
)

var frameHeader = [headerLen]byte{0x53, 0x43, 0x00, 0xB1, 0x00, 0x80, 0x01}

// Encoder serializes wire-ordered frames into the DX-Light format. It owns
// the frame counter, so one Encoder per device connection.
type Encoder struct {
	n       int
	group   int
	counter uint8
	buf     []byte
}

// NewEncoder returns an encoder for n LEDs. n must be divisible into the
// device's three edge groups.
func NewEncoder(n int) (*Encoder, error) {
	if n <= 0 || n%3 != 0 {
		return nil, fmt.Errorf("%w: led count %d not divisible into 3 groups", strip.ErrEncoding, n)
	}
	e := &Encoder{n: n, group: n / 3}
	e.buf = make([]byte, e.FrameLen())
	return e, nil
}

// FrameLen is the fixed frame size for this LED count: the raw payload
// rounded up to whole HID reports. 192 bytes for the stock 36-LED strip.
func (e *Encoder) FrameLen() int {
	raw := headerLen + 3 + 5*e.n
	return (raw + reportSize - 1) / reportSize * reportSize
}

// Encode builds the frame for rgb (len 3*n, wire order) and advances the
// frame counter. The returned slice is reused by the next call.
func (e *Encoder) Encode(rgb []byte) ([]byte, error) {
	if len(rgb) != e.n*3 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", strip.ErrEncoding, len(rgb), e.n*3)
	}
	buf := e.buf
	for i := range buf {
		buf[i] = 0
	}
	copy(buf[:headerLen], frameHeader[:])
	buf[4] = e.counter
	e.counter++

	buf[7] = rgb[0]
	buf[8] = rgb[1]
	buf[9] = rgb[2]

	p := 10
	c := byte(1)
	for _, s := range [3]int{1, e.group, 2 * e.group} {
		for i := 0; i < e.group; i++ {
			buf[p] = c
			c++
			buf[p+1] = c
			c++
			src := (s + i) * 3
			buf[p+2] = rgb[src]
			buf[p+3] = rgb[src+1]
			buf[p+4] = rgb[src+2]
			p += 5
		}
	}
	return buf, nil
}

// Reports splits a frame into HID output reports, each prefixed with the
// report ID byte 0x00 the device expects.
func Reports(frame []byte) [][]byte {
	out := make([][]byte, 0, len(frame)/reportSize)
	for off := 0; off < len(frame); off += reportSize {
		rep := make([]byte, 1+reportSize)
		copy(rep[1:], frame[off:off+reportSize])
		out = append(out, rep)
	}
	return out
}
