// Package dispatcher owns the transport lifecycle and the transmit
// timer, generalizing the goroutine+channel+signal.NotifyContext shape
// of the teacher's internal/cmd/server.go into a single-threaded state
// machine over an interchangeable BLE/USB Sink.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/hidperiphd/internal/hidreport"
	"github.com/Alia5/hidperiphd/internal/inputstate"
	"github.com/Alia5/hidperiphd/internal/log"
)

// Mode selects which transport Start brings up.
type Mode int

const (
	ModeBLE Mode = iota
	ModeUSB
)

func (m Mode) String() string {
	if m == ModeUSB {
		return "usb"
	}
	return "ble"
}

// Phase is the Dispatcher's lifecycle state.
type Phase int

const (
	Off Phase = iota
	Starting
	Running
	Stopping
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "off"
	}
}

// Sink is the active transport's push/lifecycle surface. internal/config
// adapts hog.Server and usbgadget.Gadget to it (bleSink, usbSink);
// Dispatcher never imports either package directly, breaking the
// reference cycle spec.md §9 calls out under "Cyclic lifetimes".
type Sink interface {
	Start() error
	Stop() error
	Push(reportID uint8, value []byte) error
}

// SinkFactory builds the Sink for a given mode, deferring the actual
// hog.NewServer/usbgadget.Bringup call to the caller (internal/config's
// ServerCommand), which is the only place that knows both transports'
// concrete configs.
type SinkFactory func(Mode) (Sink, error)

// DirtyShutdown is logged (and returned to the control surface) when
// Stop could not complete cooperatively within its deadline and had to
// force-close the transport, or when the transport's own Stop returned
// an error.
type DirtyShutdown struct {
	Err error
}

func (e *DirtyShutdown) Error() string { return fmt.Sprintf("dispatcher: dirty shutdown: %v", e.Err) }
func (e *DirtyShutdown) Unwrap() error { return e.Err }

// StopDeadline is the cooperative-stop budget before Stop escalates to
// forced closure, per spec.md §4.6's cancellation rule.
const StopDeadline = time.Second

const (
	MinRateHz     = 1
	MaxRateHz     = 250
	DefaultRateHz = 100
)

// Dispatcher is the single owner of transport lifecycle and pacing.
type Dispatcher struct {
	mu    sync.Mutex
	phase Phase
	mode  Mode

	input   *inputstate.State
	sink    Sink
	factory SinkFactory
	log     *slog.Logger

	rateHz int
	cancel context.CancelFunc
	done   chan struct{}

	onFault func(error)
	raw     log.RawLogger
}

// New creates a Dispatcher over the given input state. logger may be nil.
func New(input *inputstate.State, factory SinkFactory, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{input: input, factory: factory, log: logger, rateHz: DefaultRateHz, raw: log.NewRaw(nil)}
}

// SetRawLogger attaches a raw-packet trace sink; every report pushed to
// the active transport is hex-dumped to it, gated by the control
// binary's "verbose"/trace-level config option.
func (d *Dispatcher) SetRawLogger(r log.RawLogger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r != nil {
		d.raw = r
	}
}

// OnFault registers a callback invoked when a running transport
// self-faults (Running -> Off), per spec.md §4.6's transition rule.
func (d *Dispatcher) OnFault(f func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFault = f
}

// Phase returns the current lifecycle phase.
func (d *Dispatcher) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Mode returns the mode of the last Start call.
func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetRateHz changes the transmit rate for future ticks; it takes effect
// on the next tick without requiring a restart.
func (d *Dispatcher) SetRateHz(hz int) error {
	if hz < MinRateHz || hz > MaxRateHz {
		return fmt.Errorf("dispatcher: rate %d out of range [%d,%d]", hz, MinRateHz, MaxRateHz)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rateHz = hz
	return nil
}

// Start brings up exactly one transport and begins the transmit loop.
func (d *Dispatcher) Start(mode Mode) error {
	d.mu.Lock()
	if d.phase != Off {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher: Start called in phase %s", d.phase)
	}
	d.phase = Starting
	d.mode = mode
	rateHz := d.rateHz
	d.mu.Unlock()

	sink, err := d.factory(mode)
	if err != nil {
		d.mu.Lock()
		d.phase = Off
		d.mu.Unlock()
		return fmt.Errorf("dispatcher: build sink: %w", err)
	}
	if err := sink.Start(); err != nil {
		d.mu.Lock()
		d.phase = Off
		d.mu.Unlock()
		return fmt.Errorf("dispatcher: start transport: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.sink = sink
	d.cancel = cancel
	d.done = make(chan struct{})
	d.phase = Running
	d.mu.Unlock()

	go d.transmitLoop(ctx, sink, rateHz)
	return nil
}

// Stop cooperatively tears down the running transport, escalating to a
// forced close and a DirtyShutdown if it does not complete within
// StopDeadline.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.phase != Running {
		d.mu.Unlock()
		return nil
	}
	d.phase = Stopping
	cancel := d.cancel
	done := d.done
	sink := d.sink
	d.mu.Unlock()

	cancel()

	timedOut := false
	select {
	case <-done:
	case <-time.After(StopDeadline):
		timedOut = true
		d.log.Warn("dispatcher: stop exceeded deadline, forcing teardown")
	}

	err := sink.Stop()

	d.mu.Lock()
	d.phase = Off
	d.sink = nil
	d.mu.Unlock()

	if timedOut && err == nil {
		err = fmt.Errorf("transmit loop did not stop within %s", StopDeadline)
	}
	if err != nil {
		return &DirtyShutdown{Err: err}
	}
	return nil
}

func (d *Dispatcher) transmitLoop(ctx context.Context, sink Sink, rateHz int) {
	defer close(d.done)
	ticker := time.NewTicker(time.Second / time.Duration(rateHz))
	defer ticker.Stop()
	currentRateHz := rateHz

	reportIDs := [3]uint8{hidreport.ReportIDGamepad, hidreport.ReportIDKeyboard, hidreport.ReportIDMouse}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			nextRateHz := d.rateHz
			d.mu.Unlock()
			if nextRateHz != currentRateHz {
				ticker.Reset(time.Second / time.Duration(nextRateHz))
				currentRateHz = nextRateHz
			}

			dirty := d.input.Dirty()
			for _, id := range reportIDs {
				if dirty&(1<<id) == 0 {
					continue
				}
				bytes, err := d.input.SnapshotAndClearRelative(id)
				if err != nil {
					d.log.Error("dispatcher: snapshot failed", "report_id", id, "err", err)
					continue
				}
				d.raw.Log(false, bytes)
				if err := sink.Push(id, bytes[1:]); err != nil {
					d.log.Error("dispatcher: transport fault", "err", err)
					d.fault(err)
					return
				}
			}
		}
	}
}

func (d *Dispatcher) fault(err error) {
	d.mu.Lock()
	d.phase = Off
	cb := d.onFault
	d.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}
