package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/hidperiphd/internal/config"
	"github.com/Alia5/hidperiphd/internal/control"
	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/usbgadget"
)

func TestExitCode_NilIsOK(t *testing.T) {
	require.Equal(t, config.ExitOK, config.ExitCode(nil))
}

func TestExitCode_ConfigErrorMapping(t *testing.T) {
	err := &config.ConfigError{Detail: "bad mode"}
	require.Equal(t, config.ExitConfigError, config.ExitCode(err))
}

func TestExitCode_PermissionDeniedMapping(t *testing.T) {
	err := &control.PermissionDenied{Reason: "bad password"}
	require.Equal(t, config.ExitPermissionDenied, config.ExitCode(err))

	require.Equal(t, config.ExitPermissionDenied, config.ExitCode(os.ErrPermission))
}

func TestExitCode_DirtyShutdownMapping(t *testing.T) {
	err := &dispatcher.DirtyShutdown{Err: errors.New("transport wedged")}
	require.Equal(t, config.ExitDirtyShutdown, config.ExitCode(err))
}

func TestExitCode_TransportBringUpMapping(t *testing.T) {
	require.Equal(t, config.ExitTransportBringUp, config.ExitCode(usbgadget.NoUDCAvailable{}))
	require.Equal(t, config.ExitTransportBringUp, config.ExitCode(usbgadget.ConfigfsNotMounted{}))
	require.Equal(t, config.ExitTransportBringUp, config.ExitCode(&usbgadget.GadgetAlreadyExists{Name: "hidperiphd"}))
}

func TestExitCode_UnknownErrorFallsBackToConfigError(t *testing.T) {
	require.Equal(t, config.ExitConfigError, config.ExitCode(errors.New("something unexpected")))
}
