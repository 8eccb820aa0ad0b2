package fire

import (
	"errors"
	"testing"

	"github.com/rkorell/pyrod/internal/radio"
)

func TestChannelCode(t *testing.T) {
	cases := []struct {
		base, channel int
		want          uint32
	}{
		{200, 3, 203},
		{200, 9, 209},
		{200, 10, 210},
		{800, 1, 801},
	}
	for _, tc := range cases {
		if got := ChannelCode(tc.base, tc.channel); got != tc.want {
			t.Errorf("ChannelCode(%d, %d) = %d, want %d", tc.base, tc.channel, got, tc.want)
		}
	}
}

func TestDirectCode(t *testing.T) {
	cases := []struct {
		firstBox, index int
		want            uint32
	}{
		{1001, 1, 1001},
		{1001, 15, 1015},
		{1001, 50, 1050},
	}
	for _, tc := range cases {
		if got := DirectCode(tc.firstBox, tc.index); got != tc.want {
			t.Errorf("DirectCode(%d, %d) = %d, want %d", tc.firstBox, tc.index, got, tc.want)
		}
	}
}

// fakeAvailability scripts per-igniter availability.
type fakeAvailability struct {
	unavailable map[int]bool
	err         error
}

func (f *fakeAvailability) Available(nr int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.unavailable[nr], nil
}

func newTestController(tx radio.Transmitter, avail Availability) *Controller {
	return NewController(NewState(), tx, avail, map[int]int{1: 100, 2: 200}, 1001, 50)
}

func ready(c *Controller) {
	c.State().SetAuthorized(true)
	c.State().SetArmed(true)
}

func TestFireRejectedWithoutAuthorization(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, nil)
	c.State().SetArmed(true)

	res, err := c.Fire(GroupTarget(2, 3))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if res.OK {
		t.Error("expected rejection")
	}
	if res.Reason == "" {
		t.Error("rejection carries no reason")
	}
	if len(tx.SentCodes()) != 0 {
		t.Errorf("transmitted %v despite rejection", tx.SentCodes())
	}
}

func TestFireRejectedWhenDisarmed(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, nil)
	c.State().SetAuthorized(true)

	res, err := c.Fire(GroupTarget(2, 3))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if res.OK {
		t.Error("expected rejection")
	}
	if len(tx.SentCodes()) != 0 {
		t.Errorf("transmitted %v despite rejection", tx.SentCodes())
	}
}

func TestFireGroupChannel(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, nil)
	ready(c)

	res, err := c.Fire(GroupTarget(2, 3))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if !res.OK {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.Code != 203 {
		t.Errorf("code = %d, want 203", res.Code)
	}
	if sent := tx.SentCodes(); len(sent) != 1 || sent[0] != 203 {
		t.Errorf("sent = %v, want [203]", sent)
	}
	if !c.State().Fired(GroupTarget(2, 3)) {
		t.Error("fired flag not set")
	}
}

func TestFireUnknownGroupRejected(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, nil)
	ready(c)

	res, err := c.Fire(GroupTarget(9, 1))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if res.OK {
		t.Error("expected rejection for unknown group")
	}
}

func TestFireChannelOutOfRangeRejected(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, nil)
	ready(c)

	for _, ch := range []int{0, 11, -1} {
		res, err := c.Fire(GroupTarget(2, ch))
		if err != nil {
			t.Fatalf("Fire(channel %d): %v", ch, err)
		}
		if res.OK {
			t.Errorf("channel %d accepted", ch)
		}
	}
}

func TestFireDirectIgniter(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, &fakeAvailability{})
	ready(c)

	res, err := c.Fire(DirectTarget(15))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if !res.OK {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.Code != 1015 {
		t.Errorf("code = %d, want 1015", res.Code)
	}
}

func TestFireUnavailableIgniterRejected(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	avail := &fakeAvailability{unavailable: map[int]bool{7: true}}
	c := newTestController(tx, avail)
	ready(c)

	res, err := c.Fire(DirectTarget(7))
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if res.OK {
		t.Error("expected rejection for unavailable igniter")
	}
	if len(tx.SentCodes()) != 0 {
		t.Errorf("transmitted %v despite rejection", tx.SentCodes())
	}
	// Rejection must not have touched availability.
	if av, _ := avail.Available(7); av {
		t.Error("availability flipped by fire attempt")
	}
}

func TestFireAvailabilityStoreError(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, &fakeAvailability{err: errors.New("disk gone")})
	ready(c)

	_, err := c.Fire(DirectTarget(1))
	if err == nil {
		t.Fatal("expected error from availability store")
	}
	if len(tx.SentCodes()) != 0 {
		t.Errorf("transmitted %v despite store error", tx.SentCodes())
	}
}

func TestFireTransmitFailureLeavesUnfired(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	tx.SendError = errors.New("pin busy")
	c := newTestController(tx, nil)
	ready(c)

	target := GroupTarget(1, 4)
	_, err := c.Fire(target)
	if err == nil {
		t.Fatal("expected transmit error")
	}
	if c.State().Fired(target) {
		t.Error("fired flag set despite transmit failure")
	}
}

func TestResetAndResetAll(t *testing.T) {
	tx := radio.NewFakeTransmitter()
	c := newTestController(tx, &fakeAvailability{})
	ready(c)

	g := GroupTarget(1, 1)
	d := DirectTarget(3)
	if _, err := c.Fire(g); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fire(d); err != nil {
		t.Fatal(err)
	}

	c.Reset(g)
	if c.State().Fired(g) {
		t.Error("group target still fired after Reset")
	}
	if !c.State().Fired(d) {
		t.Error("Reset cleared an unrelated target")
	}

	c.ResetAll()
	if c.State().Fired(d) {
		t.Error("target still fired after ResetAll")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewState()
	s.SetArmed(true)
	s.markFired(GroupTarget(1, 2))

	snap := s.Snapshot()
	snap.Fired["1-2"] = false
	snap.Fired["x"] = true

	if !s.Fired(GroupTarget(1, 2)) {
		t.Error("mutating snapshot changed state")
	}
	if len(s.Snapshot().Fired) != 1 {
		t.Error("mutating snapshot grew state")
	}
}
