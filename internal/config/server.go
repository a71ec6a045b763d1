package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/godbus/dbus/v5"

	"github.com/Alia5/hidperiphd/internal/configpaths"
	"github.com/Alia5/hidperiphd/internal/control"
	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/hog"
	"github.com/Alia5/hidperiphd/internal/inputsource"
	"github.com/Alia5/hidperiphd/internal/inputstate"
	"github.com/Alia5/hidperiphd/internal/log"
	"github.com/Alia5/hidperiphd/internal/usbgadget"
)

const controlKeyFileName = "hidperiphd.key.txt"

// ControlConfig configures the local control socket's bring-up.
type ControlConfig struct {
	Addr                 string `help:"Control socket listen address" default:"127.0.0.1:3824" env:"HIDPERIPHD_CONTROL_ADDR"`
	RequireLocalHostAuth bool   `help:"Require auth handshake even for localhost clients" default:"false" env:"HIDPERIPHD_CONTROL_REQUIRE_LOCALHOST_AUTH"`
	Disabled             bool   `help:"Disable the local control socket entirely" default:"false" env:"HIDPERIPHD_CONTROL_DISABLED"`
}

// ServerCommand is the CLI surface over every control-surface-visible
// option spec.md §6 names.
type ServerCommand struct {
	Mode          string `help:"Transport mode" enum:"ble,usb" default:"ble" env:"HIDPERIPHD_MODE"`
	DeviceName    string `help:"Advertised BLE LocalName / USB product string" default:"hidperiphd" env:"HIDPERIPHD_DEVICE_NAME"`
	ReportRateHz  int    `help:"Transmit timer frequency in Hz (1-250)" default:"100" env:"HIDPERIPHD_REPORT_RATE_HZ"`
	InputDevice   string `help:"evdev device path, or 'auto' to scan, or 'none' to disable" default:"auto" env:"HIDPERIPHD_INPUT_DEVICE"`
	StaticAddress string `help:"Static random BLE address to program before bring-up (XX:XX:XX:XX:XX:XX)" env:"HIDPERIPHD_STATIC_ADDRESS"`
	GadgetName    string `help:"configfs USB gadget directory name" default:"hidperiphd" env:"HIDPERIPHD_GADGET_NAME"`
	Appearance    uint16 `help:"BLE appearance value advertised by the HoG transport" default:"964" env:"HIDPERIPHD_APPEARANCE"`
	AdapterPath   string `help:"BlueZ adapter object path" default:"/org/bluez/hci0" env:"HIDPERIPHD_ADAPTER_PATH"`
	Verbose       bool   `help:"Enable raw HID report trace logging (written to --log.raw-file, or stdout at log level trace)" short:"v" env:"HIDPERIPHD_VERBOSE"`

	Control ControlConfig `embed:"" prefix:"control."`
}

// Run is called by Kong when the server command is executed.
func (s *ServerCommand) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer wires InputState, the Dispatcher, the control socket, and
// (when configured) an Input Source Adapter, then blocks until ctx is
// canceled.
func (s *ServerCommand) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	mode, err := parseMode(s.Mode)
	if err != nil {
		return err
	}
	if s.StaticAddress != "" {
		if err := hog.ValidateStaticAddress(s.StaticAddress); err != nil {
			return &ConfigError{Detail: err.Error()}
		}
	}

	state := inputstate.New()
	disp := dispatcher.New(state, s.sinkFactory(), logger)
	if err := disp.SetRateHz(s.ReportRateHz); err != nil {
		return &ConfigError{Detail: err.Error()}
	}
	if s.Verbose {
		disp.SetRawLogger(rawLogger)
	}
	disp.OnFault(func(err error) {
		logger.Error("transport self-fault, dispatcher moved to Off", "error", err)
	})

	var source *inputsource.Source
	if s.InputDevice != "" && s.InputDevice != "none" {
		src, err := inputsource.Attach(ctx, s.InputDevice, state)
		if err != nil {
			logger.Warn("input source attach failed; continuing in transport-only mode", "error", err)
		} else {
			source = src
			go func() {
				if err, ok := <-src.Errors(); ok {
					logger.Warn("input source detached", "error", err)
				}
			}()
		}
	}

	var ctrl *control.Server
	if !s.Control.Disabled {
		password, err := s.controlPassword(logger)
		if err != nil {
			return fmt.Errorf("resolve control password: %w", err)
		}
		ctrl = control.New(disp, state, control.Config{
			Addr:                 s.Control.Addr,
			Password:             password,
			RequireLocalHostAuth: s.Control.RequireLocalHostAuth,
		}, logger)
		if err := ctrl.Start(); err != nil {
			return fmt.Errorf("start control socket: %w", err)
		}
	}

	if err := disp.Start(mode); err != nil {
		if ctrl != nil {
			ctrl.Close()
		}
		return err
	}
	logger.Info("hidperiphd started", "mode", mode, "rate_hz", s.ReportRateHz)

	<-ctx.Done()

	logger.Info("shutting down")
	stopErr := disp.Stop()
	if source != nil {
		source.Detach()
	}
	if ctrl != nil {
		ctrl.Close()
	}
	return stopErr
}

// controlPassword reads the persisted control-socket password, or
// generates and persists one on first run, mirroring the teacher's
// server.go key-file handling.
func (s *ServerCommand) controlPassword(logger *slog.Logger) (string, error) {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	keyPath := filepath.Join(dir, controlKeyFileName)
	if pwd, err := os.ReadFile(keyPath); err == nil {
		return trimNewline(string(pwd)), nil
	}

	newPwd, err := control.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(keyPath, []byte(newPwd), 0o600); err != nil {
		return "", err
	}
	logger.Info("generated control socket password", "path", keyPath)
	return newPwd, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func parseMode(s string) (dispatcher.Mode, error) {
	switch s {
	case "ble":
		return dispatcher.ModeBLE, nil
	case "usb":
		return dispatcher.ModeUSB, nil
	default:
		return 0, &ConfigError{Detail: fmt.Sprintf("unknown mode %q (want ble or usb)", s)}
	}
}

// sinkFactory builds the Sink for whichever mode the Dispatcher is told
// to Start, deferring the hog.NewServer/usbgadget.Bringup call to here —
// the one place that knows both transports' concrete configs, per
// dispatcher.go's own design note.
func (s *ServerCommand) sinkFactory() dispatcher.SinkFactory {
	return func(mode dispatcher.Mode) (dispatcher.Sink, error) {
		switch mode {
		case dispatcher.ModeBLE:
			return &bleSink{cfg: hog.Config{
				AdapterPath: dbus.ObjectPath(s.AdapterPath),
				Advertisement: hog.AdvertisementConfig{
					LocalName:  s.DeviceName,
					Appearance: s.Appearance,
				},
				StaticAddress: s.StaticAddress,
			}}, nil
		case dispatcher.ModeUSB:
			return &usbSink{cfg: usbgadget.Config{
				Name:         s.GadgetName,
				Manufacturer: "hidperiphd",
				Product:      s.DeviceName,
				Serial:       "0001",
			}}, nil
		default:
			return nil, &ConfigError{Detail: fmt.Sprintf("unknown mode %d", mode)}
		}
	}
}

// bleSink adapts hog.Server to dispatcher.Sink: hog.NewServer opens the
// bus connection and exports the object tree, Start runs the
// registration protocol.
type bleSink struct {
	cfg hog.Config
	srv *hog.Server
}

func (b *bleSink) Start() error {
	srv, err := hog.NewServer(b.cfg)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		_ = srv.Stop()
		return err
	}
	b.srv = srv
	return nil
}

func (b *bleSink) Stop() error {
	if b.srv == nil {
		return nil
	}
	return b.srv.Stop()
}

func (b *bleSink) Push(reportID uint8, value []byte) error {
	return b.srv.Push(reportID, value)
}

// usbSink adapts usbgadget.Gadget to dispatcher.Sink: usbgadget.Bringup
// both constructs and activates the configfs tree, so Start and
// construction happen together here.
type usbSink struct {
	cfg    usbgadget.Config
	gadget *usbgadget.Gadget
}

func (u *usbSink) Start() error {
	g, err := usbgadget.Bringup(u.cfg)
	if err != nil {
		return err
	}
	u.gadget = g
	return nil
}

func (u *usbSink) Stop() error {
	if u.gadget == nil {
		return nil
	}
	return u.gadget.Teardown()
}

func (u *usbSink) Push(reportID uint8, value []byte) error {
	return u.gadget.Push(reportID, value)
}
