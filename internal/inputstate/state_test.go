package inputstate

import (
	"testing"

	"github.com/Alia5/hidperiphd/internal/hidreport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NeutralHat(t *testing.T) {
	s := New()
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDGamepad)
	require.NoError(t, err)
	assert.Equal(t, byte(hidreport.HatNeutral), b[len(b)-1])
}

func TestSetButton_MarksDirty(t *testing.T) {
	s := New()
	s.SetButton(1, true)
	assert.NotZero(t, s.Dirty()&DirtyGamepad)

	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDGamepad)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b[1]) // +1 for report-ID prefix

	assert.Zero(t, s.Dirty()&DirtyGamepad, "dirty bit must clear after snapshot")
}

func TestSetButton_OutOfRangeIgnored(t *testing.T) {
	s := New()
	s.SetButton(0, true)
	s.SetButton(12, true)
	assert.Zero(t, s.Dirty()&DirtyGamepad)
}

func TestSetHat(t *testing.T) {
	s := New()
	s.SetHat(true, false, false, true) // up+right
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDGamepad)
	require.NoError(t, err)
	assert.Equal(t, byte(hidreport.HatNE), b[len(b)-1])

	s.SetHat(false, false, false, true) // right only
	b, err = s.SnapshotAndClearRelative(hidreport.ReportIDGamepad)
	require.NoError(t, err)
	assert.Equal(t, byte(hidreport.HatE), b[len(b)-1])
}

func TestPressReleaseKey_Order(t *testing.T) {
	s := New()
	s.PressKey(0x04)
	s.PressKey(0x05)
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0x05, 0x00, 0x00, 0x00, 0x00}, b[1:])

	s.ReleaseKey(0x04)
	b, err = s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}, b[1:])
}

func TestPressKey_Deduplicates(t *testing.T) {
	s := New()
	s.PressKey(0x04)
	s.PressKey(0x04)
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	assert.Equal(t, byte(0x04), b[3])
	assert.Equal(t, byte(0x00), b[4])
}

func TestPressKey_RolloverOnSeventhKey(t *testing.T) {
	s := New()
	for _, k := range []uint8{0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A} {
		s.PressKey(k)
	}
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	for _, v := range b[3:] {
		assert.Equal(t, byte(hidreport.ErrorRollOver), v)
	}
}

func TestSetModifier(t *testing.T) {
	s := New()
	s.SetModifier(0x01, true)
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b[1])

	s.SetModifier(0x01, false)
	b, err = s.SnapshotAndClearRelative(hidreport.ReportIDKeyboard)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), b[1])
}

func TestMoveMouse_SaturatingAdd(t *testing.T) {
	s := New()
	s.MoveMouse(32000, 0)
	s.MoveMouse(32000, 0)
	b, err := s.SnapshotAndClearRelative(hidreport.ReportIDMouse)
	require.NoError(t, err)
	assert.Equal(t, int16(32767), int16(uint16(b[3])<<8|uint16(b[2]))) // DX follows report ID and buttons
}

func TestSnapshotAndClearRelative_ClearsMouseDeltasNotButtons(t *testing.T) {
	s := New()
	s.SetMouseButton(MouseLeft, true)
	s.MoveMouse(10, -10)
	s.Wheel(1, -1)

	b1, err := s.SnapshotAndClearRelative(hidreport.ReportIDMouse)
	require.NoError(t, err)
	assert.Equal(t, byte(MouseLeft), b1[1])
	assert.NotEqual(t, byte(0), b1[2])

	b2, err := s.SnapshotAndClearRelative(hidreport.ReportIDMouse)
	require.NoError(t, err)
	assert.Equal(t, byte(MouseLeft), b2[1], "button state must persist across snapshots")
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, b2[2:], "relative deltas must be zeroed")
}

func TestDirty_MouseClearUntilMotionPending(t *testing.T) {
	s := New()
	assert.Zero(t, s.Dirty()&DirtyMouse, "idle mouse must not be dirty")

	s.MoveMouse(1, 0)
	assert.NotZero(t, s.Dirty()&DirtyMouse)

	_, err := s.SnapshotAndClearRelative(hidreport.ReportIDMouse)
	require.NoError(t, err)
	assert.Zero(t, s.Dirty()&DirtyMouse, "dirty bit must clear after snapshot")
}

func TestDirty_MouseButtonMarksDirty(t *testing.T) {
	s := New()
	s.SetMouseButton(MouseLeft, true)
	assert.NotZero(t, s.Dirty()&DirtyMouse)
}

func TestDirty_WheelMarksDirty(t *testing.T) {
	s := New()
	s.Wheel(1, 0)
	assert.NotZero(t, s.Dirty()&DirtyMouse)
}

func TestSnapshotAndClearRelative_BadReportID(t *testing.T) {
	s := New()
	_, err := s.SnapshotAndClearRelative(0xEE)
	require.Error(t, err)
}
