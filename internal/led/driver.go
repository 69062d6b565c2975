package led

// Driver abstracts an LED output sink (USB HID, SPI, console sim).
type Driver interface {
	// Write pushes one frame to the device. len(rgb) must be 3*N,
	// already in wire order.
	Write(rgb []byte) error
	// Close releases the device, blanking it where the hardware allows.
	Close() error
}
