package rfcodec

import "fmt"

// Segment is one step of a transmit schedule: hold the line at a level
// for a duration in microseconds.
type Segment struct {
	High bool
	Dur  uint32
}

// Encoder builds transmit schedules for integer codes.
type Encoder struct {
	p Params
}

// NewEncoder validates the pulse parameters and returns an encoder.
func NewEncoder(p Params) (*Encoder, error) {
	if p.Bits <= 0 {
		return nil, fmt.Errorf("rfcodec: bit count must be positive, got %d", p.Bits)
	}
	if p.Bits > 32 {
		return nil, fmt.Errorf("rfcodec: bit count must be at most 32, got %d", p.Bits)
	}
	if p.Repeats <= 0 {
		return nil, fmt.Errorf("rfcodec: repeat count must be positive, got %d", p.Repeats)
	}
	if p.Gap == 0 || p.T0 == 0 || p.T1 == 0 {
		return nil, fmt.Errorf("rfcodec: gap/t0/t1 must be non-zero (gap=%d t0=%d t1=%d)", p.Gap, p.T0, p.T1)
	}
	if p.T0 >= p.T1 {
		return nil, fmt.Errorf("rfcodec: t0 (%d) must be shorter than t1 (%d)", p.T0, p.T1)
	}
	return &Encoder{p: p}, nil
}

// Params returns the encoder's pulse parameters.
func (e *Encoder) Params() Params {
	return e.p
}

// Train returns the full transmit schedule for code: Repeats copies of
// [leader gap][Bits x (pulse + t0-or-t1 low)][delimiter pulse]
// [trailer gap], MSB-first. Each bit is a t0 pulse followed by a low of
// t0 (bit 0) or t1 (bit 1), so the receiver's t0<t1 comparison recovers
// the bit. The trailing t0 delimiter pulse closes the last bit's low;
// without it the low would merge into the trailer gap and the last bit
// would never be delimited by an edge.
func (e *Encoder) Train(code uint32) []Segment {
	segs := make([]Segment, 0, e.p.Repeats*(2*e.p.Bits+3))
	for r := 0; r < e.p.Repeats; r++ {
		segs = append(segs, Segment{High: false, Dur: e.p.Gap})
		for i := e.p.Bits - 1; i >= 0; i-- {
			segs = append(segs, Segment{High: true, Dur: e.p.T0})
			if code>>uint(i)&1 == 1 {
				segs = append(segs, Segment{High: false, Dur: e.p.T1})
			} else {
				segs = append(segs, Segment{High: false, Dur: e.p.T0})
			}
		}
		segs = append(segs, Segment{High: true, Dur: e.p.T0})
		segs = append(segs, Segment{High: false, Dur: e.p.Gap})
	}
	return segs
}

// Edges converts a transmit schedule into the edge stream an ideal
// receiver on the same line would observe. The stream is primed with a
// falling edge at start so a decoder has a reference tick for the leader
// gap. Used by the loopback transport and by tests.
func Edges(train []Segment, start uint32) []Edge {
	edges := []Edge{{Tick: start, Type: EdgeFalling}}
	t := start
	level := false
	for _, s := range train {
		if s.High != level {
			typ := EdgeFalling
			if s.High {
				typ = EdgeRising
			}
			edges = append(edges, Edge{Tick: t, Type: typ})
			level = s.High
		}
		t += s.Dur
	}
	return edges
}
