package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/rkorell/pyrod/internal/radio"
	"github.com/rkorell/pyrod/internal/rfcodec"
)

func TestAuthenticateMatch(t *testing.T) {
	rx := radio.NewFakeReceiver(rfcodec.Code{Value: 4711, Bits: 24})
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return rx, nil
	})

	ok, err := a.Authenticate(0)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
	if !rx.IsClosed() {
		t.Error("receiver not closed after session")
	}
}

func TestAuthenticateIgnoresWrongCodes(t *testing.T) {
	rx := radio.NewFakeReceiver(
		rfcodec.Code{Value: 1111},
		rfcodec.Code{Value: 2222},
		rfcodec.Code{Value: 4711},
	)
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return rx, nil
	})

	ok, err := a.Authenticate(0)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Error("expected match after wrong codes")
	}
}

func TestAuthenticateDuplicateMatchCountsOnce(t *testing.T) {
	// A repeated train delivers the same code several times.
	rx := radio.NewFakeReceiver(
		rfcodec.Code{Value: 4711},
		rfcodec.Code{Value: 4711},
		rfcodec.Code{Value: 4711},
	)
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return rx, nil
	})

	ok, err := a.Authenticate(0)
	if err != nil || !ok {
		t.Fatalf("Authenticate = %v, %v", ok, err)
	}
}

func TestAuthenticateTimeout(t *testing.T) {
	rx := radio.NewFakeReceiver()
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return rx, nil
	})

	start := time.Now()
	ok, err := a.Authenticate(300 * time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ok {
		t.Error("expected timeout, got match")
	}
	if elapsed < 300*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
	if elapsed > 300*time.Millisecond+3*pollInterval {
		t.Errorf("returned after %v, well past timeout+poll", elapsed)
	}
	if !rx.IsClosed() {
		t.Error("receiver not closed after timeout")
	}
}

func TestAuthenticateDelayedMatch(t *testing.T) {
	rx := radio.NewFakeReceiver()
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return rx, nil
	})

	const delay = 200 * time.Millisecond
	go func() {
		time.Sleep(delay)
		rx.Deliver(rfcodec.Code{Value: 4711})
	}()

	start := time.Now()
	ok, err := a.Authenticate(2 * time.Second)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
	if elapsed > delay+3*pollInterval {
		t.Errorf("matched after %v, want within one poll of %v", elapsed, delay)
	}
}

func TestAuthenticateBypass(t *testing.T) {
	factoryCalls := 0
	a := New(4711, false, 5*time.Second, func() (radio.Receiver, error) {
		factoryCalls++
		return radio.NewFakeReceiver(), nil
	})

	start := time.Now()
	ok, err := a.Authenticate(0)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Error("expected immediate true with auth not required")
	}
	if factoryCalls != 0 {
		t.Errorf("transport armed %d times, want 0", factoryCalls)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("bypass was not immediate")
	}
}

func TestAuthenticateTransportError(t *testing.T) {
	a := New(4711, true, 5*time.Second, func() (radio.Receiver, error) {
		return nil, errors.New("serial device busy")
	})

	ok, err := a.Authenticate(0)
	if ok {
		t.Error("expected failure")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestAuthenticateConfigErrors(t *testing.T) {
	t.Run("no expected code", func(t *testing.T) {
		a := New(0, true, 5*time.Second, func() (radio.Receiver, error) {
			return radio.NewFakeReceiver(), nil
		})
		_, err := a.Authenticate(0)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("err = %v, want ErrConfig", err)
		}
	})

	t.Run("no factory", func(t *testing.T) {
		a := New(4711, true, 5*time.Second, nil)
		_, err := a.Authenticate(0)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("err = %v, want ErrConfig", err)
		}
	})

	t.Run("no timeout", func(t *testing.T) {
		a := New(4711, true, 0, func() (radio.Receiver, error) {
			return radio.NewFakeReceiver(), nil
		})
		_, err := a.Authenticate(0)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("err = %v, want ErrConfig", err)
		}
	})
}
