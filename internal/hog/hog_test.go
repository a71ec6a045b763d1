package hog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyState_PushInIdleIsDropped(t *testing.T) {
	var n notifyState
	emit, _ := n.push([]byte{1, 2, 3})
	assert.False(t, emit, "push before StartNotify must not emit")
	assert.Equal(t, []byte{1, 2, 3}, n.readValue(), "ReadValue must still reflect the last push")
}

func TestNotifyState_SubscribeThenPushEmits(t *testing.T) {
	var n notifyState
	n.startNotify()
	emit, stored := n.push([]byte{9})
	assert.True(t, emit)
	assert.Equal(t, []byte{9}, stored)
}

func TestNotifyState_StopNotifyReturnsToIdle(t *testing.T) {
	var n notifyState
	n.startNotify()
	n.stopNotify()
	emit, _ := n.push([]byte{1})
	assert.False(t, emit)
}

func TestHCIIndex(t *testing.T) {
	idx, err := hciIndex("/org/bluez/hci0")
	require.NoError(t, err)
	assert.Equal(t, "0", idx)

	_, err = hciIndex("/org/bluez/nope")
	assert.Error(t, err)
}

func TestValidateStaticAddress_ValidTopBitsAccepted(t *testing.T) {
	for _, addr := range []string{"C0:11:22:33:44:55", "D0:11:22:33:44:55", "e0:11:22:33:44:55", "F0:11:22:33:44:55"} {
		assert.NoError(t, ValidateStaticAddress(addr), addr)
	}
}

func TestValidateStaticAddress_RejectsWrongTopBits(t *testing.T) {
	assert.Error(t, ValidateStaticAddress("00:11:22:33:44:55"))
	assert.Error(t, ValidateStaticAddress("A0:11:22:33:44:55"))
}

func TestValidateStaticAddress_RejectsMalformedInput(t *testing.T) {
	assert.Error(t, ValidateStaticAddress("not-an-address"))
	assert.Error(t, ValidateStaticAddress("C0:11:22:33:44"))
	assert.Error(t, ValidateStaticAddress("C0:11:22:33:44:ZZ"))
}

func TestNewAdvertisement_DefaultAppearance(t *testing.T) {
	a := newAdvertisement(AdvertisementConfig{LocalName: "pad"})
	props := a.properties()
	assert.Equal(t, uint16(DefaultAppearance), props["Appearance"].Value())
}

func TestNewAdvertisement_CustomAppearance(t *testing.T) {
	a := newAdvertisement(AdvertisementConfig{LocalName: "pad", Appearance: 0x03C1})
	props := a.properties()
	assert.Equal(t, uint16(0x03C1), props["Appearance"].Value())
}

func TestReportPayloadLen(t *testing.T) {
	assert.Equal(t, 13, reportPayloadLen(1))
	assert.Equal(t, 8, reportPayloadLen(2))
	assert.Equal(t, 7, reportPayloadLen(3))
	assert.Equal(t, 0, reportPayloadLen(99))
}
