package radio

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// CodesendTransmitter shells out to an external codesend-style utility
// instead of driving the pin itself. Kept as an alternative transmit
// strategy for deployments where the utility owns the radio hardware.
type CodesendTransmitter struct {
	path string
	bits int
	run  func(path string, args ...string) ([]byte, error)
}

// NewCodesendTransmitter validates the pulse parameters and wraps the
// utility at path.
func NewCodesendTransmitter(path string, p rfcodec.Params) (*CodesendTransmitter, error) {
	if path == "" {
		return nil, fmt.Errorf("radio: codesend path not configured")
	}
	// The utility owns the timing; the params still gate bit count.
	if _, err := rfcodec.NewEncoder(p); err != nil {
		return nil, err
	}
	return &CodesendTransmitter{
		path: path,
		bits: p.Bits,
		run: func(path string, args ...string) ([]byte, error) {
			return exec.Command(path, args...).CombinedOutput()
		},
	}, nil
}

// Send invokes the utility with the code and bit length.
func (t *CodesendTransmitter) Send(code uint32) error {
	out, err := t.run(t.path,
		strconv.FormatUint(uint64(code), 10),
		strconv.Itoa(t.bits))
	if err != nil {
		return fmt.Errorf("codesend %d: %w (output: %s)", code, err, out)
	}
	return nil
}

// Close is a no-op; the utility holds no persistent resources.
func (t *CodesendTransmitter) Close() error {
	return nil
}
