package hog

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Config configures the HoG server's bring-up.
type Config struct {
	// AdapterPath is the BlueZ adapter object, usually "/org/bluez/hci0".
	AdapterPath dbus.ObjectPath
	Advertisement AdvertisementConfig
	// StaticAddress, if non-empty, is programmed onto the adapter before
	// advertising (format "XX:XX:XX:XX:XX:XX"), gated behind the
	// static_address config option per SPEC_FULL.md §4.4.
	StaticAddress string
}

// Server owns a single D-Bus connection, the exported object tree, and
// the BlueZ registration lifecycle. Server itself spawns no goroutine:
// Push is called from the Dispatcher's transmit-loop goroutine, so every
// PropertiesChanged notification is emitted from there. Exported-object
// method calls (ReadValue, StartNotify, ...) are delivered by godbus;
// the per-characteristic notify state they share with Push is
// mutex-guarded.
type Server struct {
	conn *dbus.Conn
	cfg  Config
	app  *Application
	adv  *advertisement

	registered bool
	advertised bool
}

// NewServer opens a system-bus connection, builds and exports the object
// tree, but does not yet register it with BlueZ.
func NewServer(cfg Config) (*Server, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("hog: connect system bus: %w", err)
	}
	if cfg.AdapterPath == "" {
		cfg.AdapterPath = "/org/bluez/hci0"
	}

	app, err := NewApplication(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	adv := newAdvertisement(cfg.Advertisement)
	if err := conn.Export(adv, advertisementPath, LEAdvertisementIface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("hog: export advertisement: %w", err)
	}
	if err := conn.Export(adv, advertisementPath, PropertiesIface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("hog: export advertisement properties: %w", err)
	}

	return &Server{conn: conn, cfg: cfg, app: app, adv: adv}, nil
}

// Start runs the registration protocol from spec.md §4.4: register the
// application, program the static address if configured, then register
// the advertisement. An application or advertisement registration
// failure is returned as RegistrationFailed and aborts BLE transport
// start; no separate path keeps the transport up for an already-bonded
// central when only the advertisement fails.
func (s *Server) Start() error {
	adapter := s.conn.Object(BusName, s.cfg.AdapterPath)

	call := adapter.Call(GattManagerIface+".RegisterApplication", 0, s.app.RootPath(), map[string]dbus.Variant{})
	if call.Err != nil {
		return &RegistrationFailed{What: "application", Err: call.Err}
	}
	s.registered = true

	if s.cfg.StaticAddress != "" {
		if err := programStaticAddress(s.conn, s.cfg.AdapterPath, s.cfg.StaticAddress); err != nil {
			return fmt.Errorf("hog: program static address: %w", err)
		}
	}

	advCall := adapter.Call(LEAdvManagerIface+".RegisterAdvertisement", 0, advertisementPath, map[string]dbus.Variant{})
	if advCall.Err != nil {
		return &RegistrationFailed{What: "advertisement", Err: advCall.Err}
	}
	s.advertised = true
	return nil
}

// Push forwards a report to the matching Report characteristic. It never
// fails: a push to a characteristic with no subscriber is dropped
// silently per spec.md §4.4.
func (s *Server) Push(reportID uint8, value []byte) error {
	s.app.Push(reportID, value)
	return nil
}

// Stop runs the matching Unregister calls and releases the bus
// connection. Safe to call even if Start only partially succeeded.
func (s *Server) Stop() error {
	adapter := s.conn.Object(BusName, s.cfg.AdapterPath)
	var firstErr error
	if s.advertised {
		if call := adapter.Call(LEAdvManagerIface+".UnregisterAdvertisement", 0, advertisementPath); call.Err != nil {
			firstErr = call.Err
		}
		s.advertised = false
	}
	if s.registered {
		if call := adapter.Call(GattManagerIface+".UnregisterApplication", 0, s.app.RootPath()); call.Err != nil && firstErr == nil {
			firstErr = call.Err
		}
		s.registered = false
	}
	if err := s.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
