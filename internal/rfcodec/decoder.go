package rfcodec

// syncGapUs is the interval above which a quiet period is read as a
// leader gap rather than part of a bit.
const syncGapUs = 4000

// Default bit-count bounds for accepted codes.
const (
	DefaultMinBits = 8
	DefaultMaxBits = 32
)

// Decoder turns a stream of edges into integer codes.
//
// It is a two-state machine. In idle, edges are discarded until an
// inter-edge interval longer than the sync gap arrives; that interval is
// recorded as the leader gap and decoding begins. While decoding,
// successive intervals are paired: the first of a pair is sampled as t0,
// the second as t1, and each completed pair yields one bit (1 if t0<t1)
// accumulated MSB-first. A long interval or a watchdog event terminates
// the code; the terminating interval itself is never sampled as a bit.
// Codes outside the configured bit range are dropped without emission.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	minBits int
	maxBits int

	inCode   bool
	edge     int
	code     uint32
	gap      uint32
	t0       uint32
	t1       uint32
	bits     int
	lastTick uint32
	haveTick bool

	dropped int
}

// NewDecoder creates a decoder accepting codes of minBits..maxBits bits.
// Zero values select the defaults (8 and 32).
func NewDecoder(minBits, maxBits int) *Decoder {
	if minBits <= 0 {
		minBits = DefaultMinBits
	}
	if maxBits <= 0 {
		maxBits = DefaultMaxBits
	}
	return &Decoder{minBits: minBits, maxBits: maxBits}
}

// Feed processes one edge and returns the decoded code completed by it,
// or nil. A watchdog edge while idle is a no-op.
func (d *Decoder) Feed(e Edge) *Code {
	if e.Type == EdgeWatchdog {
		if !d.inCode {
			return nil
		}
		return d.finish()
	}

	var edgeLen uint32
	if d.haveTick {
		// uint32 subtraction wraps like the tick counter does.
		edgeLen = e.Tick - d.lastTick
	}
	d.lastTick = e.Tick
	d.haveTick = true

	if !d.inCode {
		if edgeLen > syncGapUs {
			d.begin(edgeLen)
		}
		return nil
	}

	if edgeLen > syncGapUs {
		// Terminates the current code without contributing a bit, and
		// doubles as the next code's leader gap, so back-to-back
		// trains share one gap.
		out := d.finish()
		d.begin(edgeLen)
		return out
	}

	if d.edge%2 == 0 {
		d.t0 = edgeLen
	} else {
		d.t1 = edgeLen
		if d.t0 < d.t1 {
			d.code = d.code<<1 | 1
		} else {
			d.code = d.code << 1
		}
		d.bits++
	}
	d.edge++
	return nil
}

// Dropped returns how many terminated sequences were discarded for an
// out-of-range bit count. The count exists for diagnostics only; drops
// are otherwise silent.
func (d *Decoder) Dropped() int {
	return d.dropped
}

func (d *Decoder) begin(gap uint32) {
	d.inCode = true
	d.edge = 0
	d.code = 0
	d.bits = 0
	d.gap = gap
}

func (d *Decoder) finish() *Code {
	d.inCode = false
	if d.bits < d.minBits || d.bits > d.maxBits {
		d.dropped++
		return nil
	}
	return &Code{Value: d.code, Bits: d.bits, Gap: d.gap, T0: d.t0, T1: d.t1}
}
