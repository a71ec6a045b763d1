package control

// Wire shapes for the control-surface operations: the four spec.md §1
// names (start, stop, set mode, inject synthetic event), a set-rate
// command, and a status query the teacher's API always exposes as "ping".

// StartRequest selects which transport Start brings up.
type StartRequest struct {
	Mode string `json:"mode"`
}

// SetModeRequest stops the running transport (if any) and starts mode.
type SetModeRequest struct {
	Mode string `json:"mode"`
}

// SetRateRequest changes the transmit-loop frequency without a restart.
type SetRateRequest struct {
	Hz int `json:"hz"`
}

// StatusResponse reports the Dispatcher's current lifecycle phase and mode.
type StatusResponse struct {
	Phase string `json:"phase"`
	Mode  string `json:"mode"`
}

// InjectRequest carries one synthetic input event. Kind selects which
// fields apply; unused fields are ignored.
type InjectRequest struct {
	Kind string `json:"kind"` // button, axis, trigger, hat, key, modifier, mouseMove, mouseButton, wheel

	// button
	ButtonID uint8 `json:"buttonId,omitempty"`
	Pressed  bool  `json:"pressed,omitempty"`

	// axis: x, y, rx, ry
	Axis  string `json:"axis,omitempty"`
	Value int16  `json:"value,omitempty"`

	// trigger: left, right
	Side    string `json:"side,omitempty"`
	Trigger uint8  `json:"trigger,omitempty"`

	// hat
	Up    bool `json:"up,omitempty"`
	Down  bool `json:"down,omitempty"`
	Left  bool `json:"left,omitempty"`
	Right bool `json:"right,omitempty"`

	// key / modifier
	ScanCode uint8 `json:"scanCode,omitempty"`
	Mask     uint8 `json:"mask,omitempty"`
	On       bool  `json:"on,omitempty"`

	// mouseMove
	DX int16 `json:"dx,omitempty"`
	DY int16 `json:"dy,omitempty"`

	// mouseButton
	MouseButton string `json:"mouseButton,omitempty"` // left, right, middle

	// wheel
	V int8 `json:"v,omitempty"`
	H int8 `json:"h,omitempty"`
}

// okResponse is the wire shape for a command with no result payload.
type okResponse struct {
	OK bool `json:"ok"`
}
