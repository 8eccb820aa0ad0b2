//go:build linux

package radio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// DefaultChip is the GPIO character device of the Pi's main header.
const DefaultChip = "gpiochip0"

// GPIOReceiver captures edges on one GPIO input and feeds them through
// the pulse decoder. Decoded codes are pushed onto a buffered channel
// from the event handler goroutine; an inactivity watchdog flushes a
// partially received code when the air goes quiet.
type GPIOReceiver struct {
	line     *gpiocdev.Line
	interval time.Duration

	mu       sync.Mutex
	dec      *rfcodec.Decoder
	watchdog *time.Timer
	closed   bool

	codes chan rfcodec.Code
}

// GPIOReceiverConfig carries the capture settings for one deployment.
type GPIOReceiverConfig struct {
	Chip string // empty selects DefaultChip
	Pin  int
	// Glitch drops edges shorter than this before they reach the
	// decoder.
	Glitch time.Duration
	// Watchdog is the inactivity window after which a pending code is
	// flushed.
	Watchdog time.Duration
	// MinBits/MaxBits bound accepted codes; zero selects defaults.
	MinBits int
	MaxBits int
}

// NewGPIOReceiver arms edge capture and starts decoding.
func NewGPIOReceiver(cfg GPIOReceiverConfig) (*GPIOReceiver, error) {
	chip := cfg.Chip
	if chip == "" {
		chip = DefaultChip
	}
	if cfg.Watchdog <= 0 {
		cfg.Watchdog = 100 * time.Millisecond
	}

	r := &GPIOReceiver{
		interval: cfg.Watchdog,
		dec:      rfcodec.NewDecoder(cfg.MinBits, cfg.MaxBits),
		codes:    make(chan rfcodec.Code, 8),
	}
	// The timer is armed before the line so the first quiet window
	// after arming is already covered.
	r.watchdog = time.AfterFunc(cfg.Watchdog, r.onWatchdog)

	line, err := gpiocdev.RequestLine(chip, cfg.Pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(cfg.Glitch),
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		r.watchdog.Stop()
		return nil, fmt.Errorf("request rx pin %d on %s: %w", cfg.Pin, chip, err)
	}
	r.line = line
	return r, nil
}

// Codes returns the decoded code channel.
func (r *GPIOReceiver) Codes() <-chan rfcodec.Code {
	return r.codes
}

// Close detaches the event handler and releases the line. Once Close
// returns, no further codes are delivered.
func (r *GPIOReceiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.watchdog.Stop()
	r.mu.Unlock()

	if err := r.line.Close(); err != nil {
		return fmt.Errorf("close rx line: %w", err)
	}
	return nil
}

// handleEvent runs on the capture goroutine for every edge.
func (r *GPIOReceiver) handleEvent(evt gpiocdev.LineEvent) {
	typ := rfcodec.EdgeFalling
	if evt.Type == gpiocdev.LineEventRisingEdge {
		typ = rfcodec.EdgeRising
	}
	tick := uint32(evt.Timestamp / time.Microsecond)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.watchdog.Reset(r.interval)
	code := r.dec.Feed(rfcodec.Edge{Tick: tick, Type: typ})
	r.mu.Unlock()

	if code != nil {
		r.deliver(*code)
	}
}

func (r *GPIOReceiver) onWatchdog() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	code := r.dec.Feed(rfcodec.Edge{Type: rfcodec.EdgeWatchdog})
	// Re-armed on the next edge; an idle line needs no watchdog.
	r.mu.Unlock()

	if code != nil {
		r.deliver(*code)
	}
}

func (r *GPIOReceiver) deliver(c rfcodec.Code) {
	select {
	case r.codes <- c:
	default:
		// Consumer is behind; the sender repeats trains anyway.
	}
}

// GPIOTransmitter drives a GPIO output through the encoder's schedule.
type GPIOTransmitter struct {
	line *gpiocdev.Line
	enc  *rfcodec.Encoder
}

// NewGPIOTransmitter validates the pulse parameters and claims the
// transmit pin.
func NewGPIOTransmitter(chip string, p rfcodec.Params) (*GPIOTransmitter, error) {
	enc, err := rfcodec.NewEncoder(p)
	if err != nil {
		return nil, err
	}
	if chip == "" {
		chip = DefaultChip
	}
	line, err := gpiocdev.RequestLine(chip, p.GPIO, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request tx pin %d on %s: %w", p.GPIO, chip, err)
	}
	return &GPIOTransmitter{line: line, enc: enc}, nil
}

// Send keys the full repeated train for code onto the pin, blocking
// until the schedule has run.
func (t *GPIOTransmitter) Send(code uint32) error {
	level := -1
	for _, seg := range t.enc.Train(code) {
		v := 0
		if seg.High {
			v = 1
		}
		if v != level {
			if err := t.line.SetValue(v); err != nil {
				t.line.SetValue(0)
				return fmt.Errorf("drive tx pin: %w", err)
			}
			level = v
		}
		time.Sleep(time.Duration(seg.Dur) * time.Microsecond)
	}
	if err := t.line.SetValue(0); err != nil {
		return fmt.Errorf("release tx pin: %w", err)
	}
	return nil
}

// Close lowers the pin and releases it.
func (t *GPIOTransmitter) Close() error {
	t.line.SetValue(0)
	if err := t.line.Close(); err != nil {
		return fmt.Errorf("close tx line: %w", err)
	}
	return nil
}
