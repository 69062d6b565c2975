package led

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPIStrip drives a generic WS2812-class strip over spidev, for builds that
// bypass the DX-Light HID protocol entirely. The NRZ bit expansion is done
// by periph's nrzled driver.
type SPIStrip struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	n    int
}

// NewSPIStrip opens devPath (e.g. "/dev/spidev0.0", empty for the first
// registered port) for count LEDs. speedHz in the 2.4-3.2MHz range suits the
// 3x expansion scheme; 0 picks a safe default.
func NewSPIStrip(devPath string, count int, speedHz int) (*SPIStrip, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid led count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = 2500000
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	port, err := spireg.Open(devPath)
	if err != nil {
		return nil, fmt.Errorf("open spi port: %w", err)
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      physic.Frequency(speedHz) * physic.Hertz,
	})
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPIStrip{port: port, dev: dev, n: count}, nil
}

func (s *SPIStrip) Write(rgb []byte) error {
	if len(rgb) != s.n*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.n)
	}
	if _, err := s.dev.Write(rgb); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPIStrip) Close() error {
	_ = s.dev.Halt()
	return s.port.Close()
}
