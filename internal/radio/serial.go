package radio

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// Serial bridge wire protocol: the host sends one SCAN command, the
// device then reports every decoded code as a decimal integer line.
// Lines starting with '#' are device status text.
const (
	bridgeBaud    = 9600
	bridgeCommand = "SCAN\n"
	commentMarker = "#"

	// settleDelay covers the device's boot reset after the port
	// opens; output before it is unreliable and is discarded.
	settleDelay = 2 * time.Second

	readTimeout  = 100 * time.Millisecond
	pollInterval = 50 * time.Millisecond
)

// bridgePort is the slice of the serial port API the receiver needs.
// Satisfied by go.bug.st/serial.Port and by test fakes.
type bridgePort interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// SerialReceiver reads codes from a serial-attached microcontroller
// that decodes the 433MHz band itself.
type SerialReceiver struct {
	port  bridgePort
	codes chan rfcodec.Code
	done  chan struct{}
}

// NewSerialReceiver opens the bridge device and starts scanning.
func NewSerialReceiver(path string) (*SerialReceiver, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: bridgeBaud})
	if err != nil {
		return nil, fmt.Errorf("open serial bridge %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return newSerialReceiver(port, settleDelay), nil
}

// newSerialReceiver wires a receiver over an already open port. Split
// out so tests can inject a fake port and a zero settle delay.
func newSerialReceiver(port bridgePort, settle time.Duration) *SerialReceiver {
	r := &SerialReceiver{
		port:  port,
		codes: make(chan rfcodec.Code, 8),
		done:  make(chan struct{}),
	}
	go r.run(settle)
	return r
}

// Codes returns the decoded code channel.
func (r *SerialReceiver) Codes() <-chan rfcodec.Code {
	return r.codes
}

// Close stops scanning and closes the port.
func (r *SerialReceiver) Close() error {
	select {
	case <-r.done:
		return nil
	default:
	}
	close(r.done)
	if err := r.port.Close(); err != nil {
		return fmt.Errorf("close serial bridge: %w", err)
	}
	return nil
}

func (r *SerialReceiver) run(settle time.Duration) {
	// Wait out the device's boot reset, then throw away whatever it
	// printed while booting.
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-r.done:
			return
		}
	}
	if err := r.port.ResetInputBuffer(); err != nil {
		log.Printf("serial bridge: drain failed: %v", err)
	}
	if _, err := r.port.Write([]byte(bridgeCommand)); err != nil {
		log.Printf("serial bridge: send %q failed: %v", strings.TrimSpace(bridgeCommand), err)
		return
	}

	buf := make([]byte, 256)
	var pending []byte
	for {
		select {
		case <-r.done:
			return
		default:
		}

		n, err := r.port.Read(buf)
		if err != nil {
			select {
			case <-r.done:
				// Close unblocked the read.
			default:
				log.Printf("serial bridge: read failed: %v", err)
			}
			return
		}
		if n == 0 {
			// Read timeout; poll again shortly.
			select {
			case <-time.After(pollInterval):
			case <-r.done:
				return
			}
			continue
		}

		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimSpace(string(pending[:i]))
			pending = pending[i+1:]
			r.handleLine(line)
		}
	}
}

// handleLine parses one device line. Status text and malformed lines
// are dropped without disturbing the scan.
func (r *SerialReceiver) handleLine(line string) {
	if line == "" || strings.HasPrefix(line, commentMarker) {
		return
	}
	v, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		log.Printf("serial bridge: ignoring non-numeric line %q", line)
		return
	}
	select {
	case r.codes <- rfcodec.Code{Value: uint32(v)}:
	default:
	}
}
