// Package radio provides the 433MHz transports: receive paths that turn
// handset transmissions into decoded codes, and transmit paths that key
// igniter codes onto the air. The real receive/transmit implementations
// use the Linux GPIO character device or a serial-attached decoder
// bridge; fakes allow testing without hardware.
package radio

import "github.com/rkorell/pyrod/internal/rfcodec"

// Receiver delivers decoded codes from the air. Codes may arrive
// duplicated when the sender repeats its train; consumers must treat a
// match as idempotent. A Receiver is owned by one session at a time.
type Receiver interface {
	// Codes returns the channel decoded codes are delivered on. The
	// channel is buffered; codes are dropped, not queued, when the
	// consumer falls behind.
	Codes() <-chan rfcodec.Code

	// Close releases the transport. No codes are delivered after
	// Close returns.
	Close() error
}

// Transmitter sends one igniter code as a repeated pulse train. The RF
// medium is an unacknowledged broadcast: Send returns once the full
// train has been keyed, with no delivery confirmation.
type Transmitter interface {
	Send(code uint32) error
	Close() error
}
