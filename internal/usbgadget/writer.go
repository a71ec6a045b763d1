package usbgadget

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// HostDetached is surfaced when a write to /dev/hidgN fails with EPIPE or
// ESHUTDOWN — the host end of the USB link is gone. Push only returns
// it; the Dispatcher treats it as a transport fault and moves to Off.
type HostDetached struct {
	Err error
}

func (e *HostDetached) Error() string { return fmt.Sprintf("usbgadget: host detached: %v", e.Err) }
func (e *HostDetached) Unwrap() error { return e.Err }

// Push prepends reportID to value and writes the concatenation to the
// gadget's hidg node, retrying on short writes until the whole frame is
// written or the kernel reports the link is gone.
func (g *Gadget) Push(reportID uint8, value []byte) error {
	frame := make([]byte, 1+len(value))
	frame[0] = reportID
	copy(frame[1:], value)

	for written := 0; written < len(frame); {
		n, err := g.hidg.Write(frame[written:])
		if err != nil {
			if errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ESHUTDOWN) {
				return &HostDetached{Err: err}
			}
			return fmt.Errorf("usbgadget: write: %w", err)
		}
		written += n
	}
	return nil
}
