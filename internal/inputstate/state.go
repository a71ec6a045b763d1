// Package inputstate holds the mutex-guarded, in-memory snapshot of the
// gamepad, keyboard, and mouse devices. Mutators may run on any
// goroutine (input-source callbacks, the control socket's injected
// events); only the Dispatcher's transmit loop reads snapshots, mirroring
// the teacher's per-device `stateMu sync.Mutex` pattern generalized
// across all three devices instead of one per struct.
package inputstate

import (
	"sync"

	"github.com/Alia5/hidperiphd/internal/hidreport"
)

// Dirty bits, one per report ID, consumed by the Dispatcher's transmit
// loop to suppress reports that have not changed since the last tick.
const (
	DirtyGamepad  = 1 << hidreport.ReportIDGamepad
	DirtyKeyboard = 1 << hidreport.ReportIDKeyboard
	DirtyMouse    = 1 << hidreport.ReportIDMouse
)

// State is the aggregate thread-safe input snapshot.
type State struct {
	mu sync.Mutex

	gamepad  hidreport.GamepadState
	keyboard hidreport.KeyboardState
	mouse    hidreport.MouseState

	dirty uint32
}

// New returns a State with all devices in their neutral position (hat
// centered, no buttons, no keys).
func New() *State {
	return &State{
		gamepad: hidreport.GamepadState{Hat: hidreport.HatNeutral},
	}
}

// Dirty reports which report IDs have pending changes since their last
// snapshot, per spec.md §4.6's transmit-loop suppression rule. The mouse
// bit is set only while a relative delta (motion, wheel, or a button
// edge) is pending — an idle mouse is as quiet as an idle gamepad.
func (s *State) Dirty() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// SetButton sets or clears gamepad button id (1-11).
func (s *State) SetButton(id uint8, pressed bool) {
	if id < 1 || id > 11 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bit := uint16(1) << (id - 1)
	if pressed {
		s.gamepad.Buttons |= bit
	} else {
		s.gamepad.Buttons &^= bit
	}
	s.dirty |= DirtyGamepad
}

// Axis identifies one of the four gamepad sticks.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisRx
	AxisRy
)

// SetAxis sets an absolute stick position.
func (s *State) SetAxis(axis Axis, value int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch axis {
	case AxisX:
		s.gamepad.AxisX = value
	case AxisY:
		s.gamepad.AxisY = value
	case AxisRx:
		s.gamepad.AxisRx = value
	case AxisRy:
		s.gamepad.AxisRy = value
	}
	s.dirty |= DirtyGamepad
}

// TriggerSide identifies one of the two analog triggers.
type TriggerSide int

const (
	TriggerLeft TriggerSide = iota
	TriggerRight
)

// SetTrigger sets an absolute trigger pull (0-255).
func (s *State) SetTrigger(side TriggerSide, value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch side {
	case TriggerLeft:
		s.gamepad.TriggerL2 = value
	case TriggerRight:
		s.gamepad.TriggerR2 = value
	}
	s.dirty |= DirtyGamepad
}

// SetHat updates the D-pad hat switch from the four direction booleans,
// per the canonical table in hidreport.HatFromDirections.
func (s *State) SetHat(up, down, left, right bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gamepad.Hat = hidreport.HatFromDirections(up, down, left, right)
	s.dirty |= DirtyGamepad
}

// PressKey adds scanCode to the ordered active-key multiset if it is not
// already present, keeping press order for rollover purposes.
func (s *State) PressKey(scanCode uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keyboard.Keys {
		if k == scanCode {
			return
		}
	}
	s.keyboard.Keys = append(s.keyboard.Keys, scanCode)
	s.dirty |= DirtyKeyboard
}

// ReleaseKey removes scanCode from the active-key multiset, if present.
func (s *State) ReleaseKey(scanCode uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.keyboard.Keys
	for i, k := range keys {
		if k == scanCode {
			s.keyboard.Keys = append(keys[:i], keys[i+1:]...)
			s.dirty |= DirtyKeyboard
			return
		}
	}
}

// SetModifier sets or clears the modifier bits in mask.
func (s *State) SetModifier(mask uint8, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.keyboard.Modifier |= mask
	} else {
		s.keyboard.Modifier &^= mask
	}
	s.dirty |= DirtyKeyboard
}

// MoveMouse accumulates a relative motion delta with saturating add, so
// a burst of fast events cannot wrap DX/DY around int16.
func (s *State) MoveMouse(dx, dy int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouse.DX = saturatingAddI16(s.mouse.DX, dx)
	s.mouse.DY = saturatingAddI16(s.mouse.DY, dy)
	s.dirty |= DirtyMouse
}

// MouseButton identifies one of the three mouse buttons.
type MouseButton uint8

const (
	MouseLeft   MouseButton = hidreport.MouseButtonLeft
	MouseRight  MouseButton = hidreport.MouseButtonRight
	MouseMiddle MouseButton = hidreport.MouseButtonMiddle
)

// SetMouseButton sets or clears a mouse button.
func (s *State) SetMouseButton(button MouseButton, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pressed {
		s.mouse.Buttons |= uint8(button)
	} else {
		s.mouse.Buttons &^= uint8(button)
	}
	s.dirty |= DirtyMouse
}

// Wheel accumulates relative vertical (v) and horizontal (h) scroll with
// saturating add.
func (s *State) Wheel(v, h int8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouse.Wheel = saturatingAddI8(s.mouse.Wheel, v)
	s.mouse.Pan = saturatingAddI8(s.mouse.Pan, h)
	s.dirty |= DirtyMouse
}

// SnapshotAndClearRelative returns the wire-ready bytes for reportID, and
// for the mouse report zeroes DX/DY/Wheel/Pan after building it — the
// teacher's mouse device consumes relative deltas the same way in
// HandleTransfer, leaving buttons untouched across snapshots.
func (s *State) SnapshotAndClearRelative(reportID uint8) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []byte
	var err error
	switch reportID {
	case hidreport.ReportIDGamepad:
		out, err = hidreport.Encode(reportID, s.gamepad)
		s.dirty &^= DirtyGamepad
	case hidreport.ReportIDKeyboard:
		out, err = hidreport.Encode(reportID, s.keyboard)
		s.dirty &^= DirtyKeyboard
	case hidreport.ReportIDMouse:
		out, err = hidreport.Encode(reportID, s.mouse)
		s.mouse.DX, s.mouse.DY = 0, 0
		s.mouse.Wheel, s.mouse.Pan = 0, 0
		s.dirty &^= DirtyMouse
	default:
		return nil, &hidreport.BadReportID{ID: reportID}
	}
	return out, err
}

func saturatingAddI16(a, b int16) int16 {
	sum := int32(a) + int32(b)
	switch {
	case sum > 32767:
		return 32767
	case sum < -32768:
		return -32768
	default:
		return int16(sum)
	}
}

func saturatingAddI8(a, b int8) int8 {
	sum := int32(a) + int32(b)
	switch {
	case sum > 127:
		return 127
	case sum < -128:
		return -128
	default:
		return int8(sum)
	}
}
