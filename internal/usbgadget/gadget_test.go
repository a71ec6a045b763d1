package usbgadget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestHex16(t *testing.T) {
	assert.Equal(t, "0x28de", hex16(idVendor))
	assert.Equal(t, "0x1205", hex16(idProduct))
}

func TestConfigfsNotMounted_Error(t *testing.T) {
	var err error = ConfigfsNotMounted{}
	assert.Contains(t, err.Error(), "configfs not mounted")
}

func TestGadgetAlreadyExists_Error(t *testing.T) {
	err := &GadgetAlreadyExists{Name: "hidperiphd"}
	assert.Contains(t, err.Error(), "hidperiphd")
}

func TestHostDetached_UnwrapsEPIPE(t *testing.T) {
	err := &HostDetached{Err: unix.EPIPE}
	assert.True(t, errors.Is(err, unix.EPIPE))
}
