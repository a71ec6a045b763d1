package hidreport

// Mouse button bits within MouseState.Buttons.
const (
	MouseButtonLeft = 1 << iota
	MouseButtonRight
	MouseButtonMiddle
)

// MouseState is the mouse report payload (report ID 3, 7 bytes): a
// 3-bit button field, relative X/Y, and relative vertical/horizontal
// wheel, per the descriptor built in descriptor.go.
type MouseState struct {
	// Buttons uses the MouseButton* bits; the remaining 5 bits are padding.
	Buttons uint8
	// DX, DY are relative stick-style motion since the last snapshot.
	DX, DY int16
	// Wheel is relative vertical scroll; Pan is relative horizontal scroll.
	Wheel, Pan int8
}

// Encode serializes the state into the 7-byte mouse payload.
func (m MouseState) Encode() []byte {
	b := make([]byte, MousePayloadLen)
	b[0] = m.Buttons & 0x07
	b[1] = byte(m.DX)
	b[2] = byte(m.DX >> 8)
	b[3] = byte(m.DY)
	b[4] = byte(m.DY >> 8)
	b[5] = byte(m.Wheel)
	b[6] = byte(m.Pan)
	return b
}
