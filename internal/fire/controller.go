package fire

import (
	"fmt"
	"log"

	"github.com/rkorell/pyrod/internal/radio"
)

// Availability reports whether a standalone igniter may be fired.
// Implemented by the persisted inventory store.
type Availability interface {
	Available(nr int) (bool, error)
}

// Result is the outcome of a fire request. A rejected request is a
// normal negative result, not an error: OK is false and Reason says
// why. System failures are returned as errors instead.
type Result struct {
	OK     bool
	Reason string
	// Code is the transmitted igniter code on success.
	Code uint32
}

func rejected(reason string) Result {
	return Result{Reason: reason}
}

// Controller gates and executes fire requests. It owns the console
// State and transmits exactly one burst per accepted request. Firing
// never modifies availability.
type Controller struct {
	state *State
	tx    radio.Transmitter
	avail Availability

	// groups maps group id to its code base.
	groups map[int]int

	firstBox    int
	directCount int
}

// NewController wires a controller. groups maps group id to code base;
// firstBox/directCount describe the standalone igniter range. avail
// may be nil when standalone igniters are disabled.
func NewController(state *State, tx radio.Transmitter, avail Availability, groups map[int]int, firstBox, directCount int) *Controller {
	return &Controller{
		state:       state,
		tx:          tx,
		avail:       avail,
		groups:      groups,
		firstBox:    firstBox,
		directCount: directCount,
	}
}

// State returns the controller-owned console state.
func (c *Controller) State() *State {
	return c.state
}

// Fire checks the gates, computes the target's code, and transmits it
// once. The fired flag is set only after a successful transmit.
func (c *Controller) Fire(t Target) (Result, error) {
	if !c.state.Authorized() {
		return rejected("not authorized"), nil
	}
	if !c.state.Armed() {
		return rejected("firing not enabled"), nil
	}

	code, res, err := c.resolve(t)
	if err != nil || !res.OK {
		return res, err
	}

	if err := c.tx.Send(code); err != nil {
		return Result{}, fmt.Errorf("transmit code %d for %s: %w", code, t, err)
	}
	c.state.markFired(t)
	log.Printf("fire: %s, code %d", t, code)
	return Result{OK: true, Code: code}, nil
}

// resolve computes the igniter code for a target, or the rejection for
// an invalid or unavailable one.
func (c *Controller) resolve(t Target) (uint32, Result, error) {
	switch t.Kind {
	case TargetGroup:
		base, ok := c.groups[t.Group]
		if !ok {
			return 0, rejected(fmt.Sprintf("unknown group %d", t.Group)), nil
		}
		if t.Channel < MinChannel || t.Channel > MaxChannel {
			return 0, rejected(fmt.Sprintf("channel %d out of range", t.Channel)), nil
		}
		return ChannelCode(base, t.Channel), Result{OK: true}, nil

	case TargetDirect:
		if c.directCount <= 0 {
			return 0, rejected("standalone igniters disabled"), nil
		}
		if t.Index < 1 || t.Index > c.directCount {
			return 0, rejected(fmt.Sprintf("igniter %d out of range", t.Index)), nil
		}
		if c.avail != nil {
			av, err := c.avail.Available(t.Index)
			if err != nil {
				return 0, Result{}, fmt.Errorf("check availability of igniter %d: %w", t.Index, err)
			}
			if !av {
				return 0, rejected(fmt.Sprintf("igniter %d not available", t.Index)), nil
			}
		}
		return DirectCode(c.firstBox, t.Index), Result{OK: true}, nil
	}
	return 0, rejected("unknown target kind"), nil
}

// Reset clears the fired flag of one target.
func (c *Controller) Reset(t Target) {
	c.state.Reset(t)
	log.Printf("fire: reset %s", t)
}

// ResetAll clears every fired flag.
func (c *Controller) ResetAll() {
	c.state.ResetAll()
	log.Printf("fire: reset all")
}
