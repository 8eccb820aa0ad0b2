package radio

import (
	"sync"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// FakeReceiver is a test double that delivers scripted codes.
type FakeReceiver struct {
	ch chan rfcodec.Code

	mu sync.Mutex
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeReceiver creates a FakeReceiver pre-loaded with the given
// codes. Further codes can be injected with Deliver.
func NewFakeReceiver(codes ...rfcodec.Code) *FakeReceiver {
	f := &FakeReceiver{ch: make(chan rfcodec.Code, 16)}
	for _, c := range codes {
		f.ch <- c
	}
	return f
}

// Deliver injects one code as if it had been decoded off the air.
// Delivery after Close is dropped.
func (f *FakeReceiver) Deliver(c rfcodec.Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Closed {
		return
	}
	select {
	case f.ch <- c:
	default:
	}
}

// Codes returns the scripted code channel.
func (f *FakeReceiver) Codes() <-chan rfcodec.Code {
	return f.ch
}

// Close marks the receiver as closed.
func (f *FakeReceiver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeReceiver) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// FakeTransmitter records sent codes for test assertions.
type FakeTransmitter struct {
	mu sync.Mutex

	// Sent contains every code passed to Send, in order.
	Sent []uint32

	// SendError, if set, will be returned by Send.
	SendError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeTransmitter creates a FakeTransmitter.
func NewFakeTransmitter() *FakeTransmitter {
	return &FakeTransmitter{}
}

// Send records the code.
func (f *FakeTransmitter) Send(code uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendError != nil {
		return f.SendError
	}
	f.Sent = append(f.Sent, code)
	return nil
}

// SentCodes returns a copy of the recorded codes.
func (f *FakeTransmitter) SentCodes() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint32, len(f.Sent))
	copy(out, f.Sent)
	return out
}

// Close marks the transmitter as closed.
func (f *FakeTransmitter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
