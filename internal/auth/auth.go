// Package auth implements the operator-presence authorization session:
// wait, with a timeout, for the handset to transmit the expected numeric
// code over the active receive transport.
package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rkorell/pyrod/internal/radio"
)

// Error taxonomy. Setup failures are surfaced, never folded into a
// false result; a plain timeout is a false result, not an error.
var (
	// ErrConfig marks missing or invalid authorization configuration.
	ErrConfig = errors.New("authorization configuration invalid")
	// ErrTransport marks an unreachable or un-armable transport.
	ErrTransport = errors.New("receive transport unavailable")
)

// pollInterval is the bounded busy-wait step of the session loop.
const pollInterval = 50 * time.Millisecond

// ReceiverFactory arms the platform's receive transport for one
// session. Errors should be wrapped so callers can classify them.
type ReceiverFactory func() (radio.Receiver, error)

// Authorizer runs authorization sessions against a fixed expected code.
// Transports are not safe for concurrent use; callers must serialize
// Authenticate calls.
type Authorizer struct {
	expected       uint32
	required       bool
	defaultTimeout time.Duration
	newReceiver    ReceiverFactory
	poll           time.Duration
}

// New creates an Authorizer. The factory is invoked once per session
// and the resulting receiver is always closed before the session
// returns.
func New(expected uint32, required bool, defaultTimeout time.Duration, factory ReceiverFactory) *Authorizer {
	return &Authorizer{
		expected:       expected,
		required:       required,
		defaultTimeout: defaultTimeout,
		newReceiver:    factory,
		poll:           pollInterval,
	}
}

// Authenticate blocks until a decoded code equals the expected code or
// the timeout elapses. It returns (true, nil) on a match, (false, nil)
// on timeout, and (false, err) for configuration or transport failures.
// A timeout of zero selects the configured default. Repeated matches
// from one transmit burst count once: the session returns on the first.
func (a *Authorizer) Authenticate(timeout time.Duration) (bool, error) {
	// The bypass precedes transport selection: no hardware is touched
	// when authorization is switched off.
	if !a.required {
		log.Printf("auth: not required, skipping")
		return true, nil
	}
	// Zero doubles as "not configured": the config layer rejects a zero
	// authorization.code, so a zero here means the value never passed
	// validation and must not be treated as a real expected code.
	if a.expected == 0 {
		return false, fmt.Errorf("%w: expected code not configured", ErrConfig)
	}
	if a.newReceiver == nil {
		return false, fmt.Errorf("%w: no receive transport configured", ErrConfig)
	}
	if timeout <= 0 {
		timeout = a.defaultTimeout
	}
	if timeout <= 0 {
		return false, fmt.Errorf("%w: timeout not configured", ErrConfig)
	}

	rx, err := a.newReceiver()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer rx.Close()

	log.Printf("auth: waiting up to %v for code", timeout)

	deadline := time.Now().Add(timeout)
	for {
		select {
		case c, ok := <-rx.Codes():
			if !ok {
				return false, fmt.Errorf("%w: receiver stopped", ErrTransport)
			}
			if c.Value == a.expected {
				log.Printf("auth: matched")
				return true, nil
			}
			// Wrong code; keep draining without sleeping so a
			// repeat burst is consumed promptly.
			continue
		default:
		}

		if !time.Now().Before(deadline) {
			log.Printf("auth: timeout")
			return false, nil
		}
		time.Sleep(a.poll)
	}
}

// Required reports whether authorization is enforced.
func (a *Authorizer) Required() bool {
	return a.required
}

// DefaultTimeout returns the configured session timeout.
func (a *Authorizer) DefaultTimeout() time.Duration {
	return a.defaultTimeout
}
