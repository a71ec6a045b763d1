package config

import (
	"errors"
	"os"

	"github.com/Alia5/hidperiphd/internal/control"
	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/hog"
	"github.com/Alia5/hidperiphd/internal/usbgadget"
)

// Exit codes of the control binary, per spec.md §6.
const (
	ExitOK                 = 0
	ExitConfigError        = 1
	ExitTransportBringUp   = 2
	ExitPermissionDenied   = 3
	ExitDirtyShutdown      = 4
)

// ExitCode classifies err into one of spec.md §6's exit codes by
// matching it against the error taxonomy each component defines (§7).
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	var dirty *dispatcher.DirtyShutdown
	if errors.As(err, &dirty) {
		return ExitDirtyShutdown
	}

	var denied *control.PermissionDenied
	if errors.As(err, &denied) {
		return ExitPermissionDenied
	}
	if errors.Is(err, os.ErrPermission) {
		return ExitPermissionDenied
	}

	var regFailed *hog.RegistrationFailed
	if errors.As(err, &regFailed) {
		return ExitTransportBringUp
	}
	var noUDC usbgadget.NoUDCAvailable
	if errors.As(err, &noUDC) {
		return ExitTransportBringUp
	}
	var notMounted usbgadget.ConfigfsNotMounted
	if errors.As(err, &notMounted) {
		return ExitTransportBringUp
	}
	var exists *usbgadget.GadgetAlreadyExists
	if errors.As(err, &exists) {
		return ExitTransportBringUp
	}

	return ExitConfigError
}
