package hidreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorIsNonEmptyAndStable(t *testing.T) {
	d1 := Descriptor()
	d2 := Descriptor()
	require.NotEmpty(t, d1)
	assert.Same(t, &d1[0], &d2[0], "Descriptor must return the same backing array on every call")
}

func TestGamepadEncode_ButtonOne(t *testing.T) {
	g := GamepadState{Buttons: 0x0001, Hat: HatNeutral}
	b := g.Encode()
	require.Len(t, b, GamepadPayloadLen)
	assert.Equal(t, []byte{
		0x01, 0x00, // buttons
		0x00, 0x00, // X
		0x00, 0x00, // Y
		0x00, 0x00, // Rx
		0x00, 0x00, // Ry
		0x00,       // L2
		0x00,       // R2
		HatNeutral, // hat
	}, b)
}

func TestGamepadEncode_AxisX(t *testing.T) {
	g := GamepadState{AxisX: 0x4000, Hat: HatNeutral}
	b := g.Encode()
	assert.Equal(t, byte(0x00), b[2])
	assert.Equal(t, byte(0x40), b[3])
}

func TestHatFromDirections(t *testing.T) {
	cases := []struct {
		up, down, left, right bool
		want                  uint8
	}{
		{up: true, right: true, want: HatNE},
		{right: true, want: HatE},
		{down: true, right: true, want: HatSE},
		{down: true, want: HatS},
		{down: true, left: true, want: HatSW},
		{left: true, want: HatW},
		{up: true, left: true, want: HatNW},
		{up: true, want: HatN},
		{want: HatNeutral},
		{up: true, down: true, want: HatNeutral},
	}
	for _, c := range cases {
		got := HatFromDirections(c.up, c.down, c.left, c.right)
		assert.Equalf(t, c.want, got, "up=%v down=%v left=%v right=%v", c.up, c.down, c.left, c.right)
	}
}

func TestKeyboardEncode_SingleKey(t *testing.T) {
	k := KeyboardState{Keys: []uint8{0x04}}
	b := k.Encode()
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00}, b)
}

func TestKeyboardEncode_Rollover(t *testing.T) {
	k := KeyboardState{Keys: []uint8{0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}}
	b := k.Encode()
	assert.Equal(t, []byte{
		0x00,
		0x00,
		ErrorRollOver, ErrorRollOver, ErrorRollOver,
		ErrorRollOver, ErrorRollOver, ErrorRollOver,
	}, b)
}

func TestKeyboardEncode_ModifierAndReservedByte(t *testing.T) {
	k := KeyboardState{Modifier: 0x11} // LeftCtrl | RightCtrl
	b := k.Encode()
	assert.Equal(t, byte(0x11), b[0])
	assert.Equal(t, byte(0x00), b[1])
}

func TestMouseEncode(t *testing.T) {
	m := MouseState{Buttons: MouseButtonLeft, DX: 10, DY: -5, Wheel: 1, Pan: -1}
	b := m.Encode()
	require.Len(t, b, MousePayloadLen)
	assert.Equal(t, byte(MouseButtonLeft), b[0])
	assert.Equal(t, byte(10), b[1])
	assert.Equal(t, byte(0), b[2])
	assert.Equal(t, byte(0xFB), b[3]) // -5 low byte
	assert.Equal(t, byte(0xFF), b[4]) // -5 high byte
	assert.Equal(t, byte(1), b[5])
	assert.Equal(t, byte(0xFF), b[6]) // -1
}

func TestMouseEncode_ButtonsMaskedTo3Bits(t *testing.T) {
	m := MouseState{Buttons: 0xFF}
	b := m.Encode()
	assert.Equal(t, byte(0x07), b[0])
}

func TestEncode_Gamepad(t *testing.T) {
	g := GamepadState{Buttons: 0x0001, Hat: HatNeutral}
	out, err := Encode(ReportIDGamepad, g)
	require.NoError(t, err)
	require.Len(t, out, 1+GamepadPayloadLen)
	assert.Equal(t, byte(ReportIDGamepad), out[0])
}

func TestEncode_Keyboard(t *testing.T) {
	k := KeyboardState{Keys: []uint8{0x04}}
	out, err := Encode(ReportIDKeyboard, k)
	require.NoError(t, err)
	require.Len(t, out, 1+KeyboardPayloadLen)
	assert.Equal(t, byte(ReportIDKeyboard), out[0])
}

func TestEncode_Mouse(t *testing.T) {
	m := MouseState{DX: 10}
	out, err := Encode(ReportIDMouse, m)
	require.NoError(t, err)
	require.Len(t, out, 1+MousePayloadLen)
	assert.Equal(t, byte(ReportIDMouse), out[0])
	assert.Equal(t, []byte{0x00, 0x0A, 0x00, 0x00, 0x00, 0x00, 0x00}, out[1:])
}

func TestEncode_BadReportID(t *testing.T) {
	_, err := Encode(0xFF, GamepadState{})
	require.Error(t, err)
	var badID *BadReportID
	require.ErrorAs(t, err, &badID)
	assert.Equal(t, uint8(0xFF), badID.ID)
}
