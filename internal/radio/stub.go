//go:build !linux

package radio

import (
	"errors"
	"time"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// DefaultChip is the GPIO character device of the Pi's main header.
const DefaultChip = "gpiochip0"

// GPIOReceiverConfig carries the capture settings for one deployment.
type GPIOReceiverConfig struct {
	Chip     string
	Pin      int
	Glitch   time.Duration
	Watchdog time.Duration
	MinBits  int
	MaxBits  int
}

// GPIOReceiver is not available on non-Linux platforms.
type GPIOReceiver struct{}

// NewGPIOReceiver returns an error on non-Linux platforms.
func NewGPIOReceiver(cfg GPIOReceiverConfig) (*GPIOReceiver, error) {
	return nil, errors.New("radio: gpio capture not supported on this platform (requires Linux)")
}

// Codes is not implemented on non-Linux platforms.
func (r *GPIOReceiver) Codes() <-chan rfcodec.Code { return nil }

// Close is not implemented on non-Linux platforms.
func (r *GPIOReceiver) Close() error { return nil }

// GPIOTransmitter is not available on non-Linux platforms.
type GPIOTransmitter struct{}

// NewGPIOTransmitter returns an error on non-Linux platforms.
func NewGPIOTransmitter(chip string, p rfcodec.Params) (*GPIOTransmitter, error) {
	return nil, errors.New("radio: gpio transmit not supported on this platform (requires Linux)")
}

// Send is not implemented on non-Linux platforms.
func (t *GPIOTransmitter) Send(code uint32) error {
	return errors.New("radio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (t *GPIOTransmitter) Close() error { return nil }
