// Package rfcodec implements the On-Off-Keying pulse-train codec used by
// 433MHz handsets and igniter receivers. This package is pure logic with
// NO hardware dependencies: the decoder consumes edge timestamps, the
// encoder produces a schedule of line levels. Time is always explicit.
package rfcodec

// EdgeType classifies one decoder input event.
type EdgeType int

const (
	// EdgeRising is a low-to-high transition on the receive line.
	EdgeRising EdgeType = iota
	// EdgeFalling is a high-to-low transition on the receive line.
	EdgeFalling
	// EdgeWatchdog signals that no edge arrived within the receiver's
	// inactivity window. It carries no timestamp information.
	EdgeWatchdog
)

// Edge is one electrical transition, timestamped with a monotonic
// microsecond tick. Ticks wrap around at 2^32 microseconds (~72 minutes);
// tick differences remain correct across a single wrap.
type Edge struct {
	Tick uint32
	Type EdgeType
}

// Code is one decoded transmission: the integer value plus the timing
// the decoder observed while discriminating bits.
type Code struct {
	Value uint32
	Bits  int
	// Gap is the leader gap length in microseconds.
	Gap uint32
	// T0 and T1 are the two interval samples of the last completed bit.
	T0 uint32
	T1 uint32
}

// Params describes the physical pulse encoding of one deployment.
// Loaded once from configuration and constant for the process lifetime.
type Params struct {
	// GPIO is the BCM pin the transmitter drives.
	GPIO int
	// Gap is the leader/trailer gap length in microseconds.
	Gap uint32
	// T0 is the short interval in microseconds.
	T0 uint32
	// T1 is the long interval in microseconds.
	T1 uint32
	// Bits is the number of bits per transmitted code.
	Bits int
	// Repeats is how many times one train is sent back-to-back.
	Repeats int
}
