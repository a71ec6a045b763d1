// Package inputsource reads a Linux kernel input event device and
// translates its events into inputstate mutations, grounded on the
// github.com/kenshaw/evdev Poll/AbsoluteTypes API used the same way in
// the viamrobotics-rdk gamepad adapter this package is modeled on.
package inputsource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/kenshaw/evdev"

	"github.com/Alia5/hidperiphd/internal/inputstate"
)

// DeviceGone is surfaced when the attached device disappears (read
// error, file closed out from under us). The adapter never retries;
// the Dispatcher decides whether to reattach.
type DeviceGone struct {
	Path string
	Err  error
}

func (e *DeviceGone) Error() string { return fmt.Sprintf("inputsource: device gone: %s: %v", e.Path, e.Err) }
func (e *DeviceGone) Unwrap() error { return e.Err }

// DeviceUnsupported is returned by Attach when the device does not
// advertise both absolute axes and gamepad buttons.
type DeviceUnsupported struct {
	Path string
}

func (e *DeviceUnsupported) Error() string {
	return fmt.Sprintf("inputsource: device unsupported (missing axes or buttons): %s", e.Path)
}

// Raw Linux input-event-codes.h values the spec names by macro. Kept as
// untyped numeric literals converted at each use site since the vendored
// evdev package does not export every BTN_*/ABS_* name this device
// needs.
const (
	btnSouth  = 0x130 // BTN_A / BTN_SOUTH
	btnEast   = 0x131 // BTN_B / BTN_EAST
	btnNorth  = 0x133 // BTN_X / BTN_NORTH (legacy numbering overlap, kept distinct here)
	btnWest   = 0x134 // BTN_Y / BTN_WEST
	btnTL     = 0x136
	btnTR     = 0x137
	btnSelect = 0x13a
	btnStart  = 0x13b
	btnMode   = 0x13c
	btnThumbL = 0x13d
	btnThumbR = 0x13e

	btnDpadUp    = 0x220
	btnDpadDown  = 0x221
	btnDpadLeft  = 0x222
	btnDpadRight = 0x223

	absX    = 0x00
	absY    = 0x01
	absZ    = 0x02
	absRX   = 0x03
	absRY   = 0x04
	absRZ   = 0x05
	absHat0X = 0x10
	absHat0Y = 0x11
	absHat2X = 0x14
	absHat2Y = 0x15
)

// buttonMap maps physical button codes to virtual gamepad button indices
// (1-11), the fixed lookup table spec.md §4.3 calls for.
var buttonMap = map[evdev.KeyType]uint8{
	evdev.KeyType(btnSouth):  1,
	evdev.KeyType(btnEast):   2,
	evdev.KeyType(btnWest):   3,
	evdev.KeyType(btnNorth):  4,
	evdev.KeyType(btnTL):     5,
	evdev.KeyType(btnTR):     6,
	evdev.KeyType(btnSelect): 7,
	evdev.KeyType(btnStart):  8,
	evdev.KeyType(btnThumbL): 9,
	evdev.KeyType(btnThumbR): 10,
	evdev.KeyType(btnMode):   11,
}

var dpadButtons = map[evdev.KeyType]bool{
	evdev.KeyType(btnDpadUp):    true,
	evdev.KeyType(btnDpadDown):  true,
	evdev.KeyType(btnDpadLeft):  true,
	evdev.KeyType(btnDpadRight): true,
}

var axisMap = map[evdev.AbsoluteType]inputstate.Axis{
	evdev.AbsoluteType(absX):  inputstate.AxisX,
	evdev.AbsoluteType(absY):  inputstate.AxisY,
	evdev.AbsoluteType(absRX): inputstate.AxisRx,
	evdev.AbsoluteType(absRY): inputstate.AxisRy,
}

// Source attaches a single kernel input device and feeds it into a State.
type Source struct {
	dev    *evdev.Evdev
	path   string
	state  *inputstate.State
	cancel context.CancelFunc
	errc   chan error

	triggerAxes [2]evdev.AbsoluteType // left, right
	hatButtons  bool                  // dpad reported as discrete buttons, not ABS_HAT0*
	hatUp, hatDown, hatLeft, hatRight bool
}

// Errors yields a single DeviceGone error when the device disappears,
// then closes. It never yields on a clean Detach.
func (s *Source) Errors() <-chan error {
	return s.errc
}

// Attach opens devicePath (or scans for the first suitable device when
// devicePath is "auto") and starts feeding state until the returned
// Source's context is canceled or the device disappears.
func Attach(ctx context.Context, devicePath string, state *inputstate.State) (*Source, error) {
	var dev *evdev.Evdev
	var path string
	var err error

	if devicePath == "auto" {
		path, dev, err = scanForGamepad()
		if err != nil {
			return nil, err
		}
	} else {
		dev, err = evdev.OpenFile(devicePath)
		if err != nil {
			return nil, fmt.Errorf("inputsource: open %s: %w", devicePath, err)
		}
		path = devicePath
		if !isSupported(dev) {
			dev.Close()
			return nil, &DeviceUnsupported{Path: devicePath}
		}
	}

	s := &Source{dev: dev, path: path, state: state, errc: make(chan error, 1)}
	s.pickTriggerAxes()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)
	return s, nil
}

// Detach stops the event loop and closes the underlying device.
func (s *Source) Detach() {
	s.cancel()
	s.dev.Close()
}

// isSupported implements the "auto" selection rule: the device must
// advertise both absolute axes and at least one gamepad button.
func isSupported(dev *evdev.Evdev) bool {
	if len(dev.AbsoluteTypes()) == 0 {
		return false
	}
	keys := dev.KeyTypes()
	for code := range buttonMap {
		if _, ok := keys[code]; ok {
			return true
		}
	}
	return false
}

func scanForGamepad() (string, *evdev.Evdev, error) {
	candidates, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return "", nil, err
	}
	sort.Strings(candidates)
	for _, path := range candidates {
		dev, err := evdev.OpenFile(path)
		if err != nil {
			continue
		}
		if isSupported(dev) {
			return path, dev, nil
		}
		dev.Close()
	}
	return "", nil, errors.New("inputsource: no suitable device found for auto")
}

// pickTriggerAxes decides whether analog triggers come from ABS_Z/ABS_RZ
// or from ABS_HAT2Y/ABS_HAT2X, the per-device ambiguity spec.md §4.3
// calls out, by checking which pair the device actually declares.
func (s *Source) pickTriggerAxes() {
	abs := s.dev.AbsoluteTypes()
	if _, ok := abs[evdev.AbsoluteType(absZ)]; ok {
		if _, ok := abs[evdev.AbsoluteType(absRZ)]; ok {
			s.triggerAxes = [2]evdev.AbsoluteType{evdev.AbsoluteType(absZ), evdev.AbsoluteType(absRZ)}
			return
		}
	}
	s.triggerAxes = [2]evdev.AbsoluteType{evdev.AbsoluteType(absHat2Y), evdev.AbsoluteType(absHat2X)}
}

func (s *Source) run(ctx context.Context) {
	defer close(s.errc)
	evChan := s.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evChan:
			if !ok || ev == nil {
				if ctx.Err() == nil {
					s.errc <- &DeviceGone{Path: s.path, Err: errors.New("event channel closed")}
				}
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Source) handle(ev *evdev.IncomingEvent) {
	switch t := ev.Type.(type) {
	case evdev.KeyType:
		s.handleKey(t, ev.Event.Value)
	case evdev.AbsoluteType:
		s.handleAbs(t, ev.Event.Value)
	}
}

func (s *Source) handleKey(code evdev.KeyType, value int32) {
	pressed := value != 0
	if idx, ok := buttonMap[code]; ok {
		s.state.SetButton(idx, pressed)
		return
	}
	if dpadButtons[code] {
		switch code {
		case evdev.KeyType(btnDpadUp):
			s.hatUp = pressed
		case evdev.KeyType(btnDpadDown):
			s.hatDown = pressed
		case evdev.KeyType(btnDpadLeft):
			s.hatLeft = pressed
		case evdev.KeyType(btnDpadRight):
			s.hatRight = pressed
		}
		s.hatButtons = true
		s.state.SetHat(s.hatUp, s.hatDown, s.hatLeft, s.hatRight)
	}
}

func (s *Source) handleAbs(code evdev.AbsoluteType, value int32) {
	info, ok := s.dev.AbsoluteTypes()[code]
	if !ok {
		return
	}

	if axis, ok := axisMap[code]; ok {
		s.state.SetAxis(axis, rescaleAxis(value, info.Min, info.Max))
		return
	}
	if code == s.triggerAxes[0] {
		s.state.SetTrigger(inputstate.TriggerLeft, rescaleTrigger(value, info.Min, info.Max))
		return
	}
	if code == s.triggerAxes[1] {
		s.state.SetTrigger(inputstate.TriggerRight, rescaleTrigger(value, info.Min, info.Max))
		return
	}
	if !s.hatButtons && (code == evdev.AbsoluteType(absHat0X) || code == evdev.AbsoluteType(absHat0Y)) {
		s.handleHatAxis(code, value)
	}
}

func (s *Source) handleHatAxis(code evdev.AbsoluteType, value int32) {
	switch code {
	case evdev.AbsoluteType(absHat0X):
		s.hatLeft, s.hatRight = value < 0, value > 0
	case evdev.AbsoluteType(absHat0Y):
		s.hatUp, s.hatDown = value < 0, value > 0
	}
	s.state.SetHat(s.hatUp, s.hatDown, s.hatLeft, s.hatRight)
}

func rescaleAxis(value, min, max int32) int16 {
	if max <= min {
		return 0
	}
	scaled := (float64(value-min)/float64(max-min))*65535.0 - 32768.0
	return clampI16(scaled)
}

func rescaleTrigger(value, min, max int32) uint8 {
	if max <= min {
		return 0
	}
	scaled := (float64(value-min) / float64(max-min)) * 255.0
	return clampU8(scaled)
}

func clampI16(v float64) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

func clampU8(v float64) uint8 {
	switch {
	case v > 255:
		return 255
	case v < 0:
		return 0
	default:
		return uint8(v)
	}
}
