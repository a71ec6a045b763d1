package hog

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// notifyState is the Report characteristic's IDLE/SUBSCRIBED machine from
// spec.md §4.4, kept free of D-Bus so it can be unit tested directly.
type notifyState struct {
	mu         sync.Mutex
	subscribed bool
	value      []byte
}

// startNotify transitions IDLE -> SUBSCRIBED. Idempotent.
func (n *notifyState) startNotify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribed = true
}

// stopNotify transitions SUBSCRIBED -> IDLE. Idempotent.
func (n *notifyState) stopNotify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribed = false
}

// push stores value as the last-read value and reports whether a
// PropertiesChanged notification should be emitted for it (only while
// subscribed; a push in IDLE is dropped silently per spec.md §4.4).
func (n *notifyState) push(value []byte) (emit bool, stored []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.value = value
	return n.subscribed, n.value
}

func (n *notifyState) readValue() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// reportCharacteristic is one of the three Report (0x2A4D) characteristics,
// one per hidreport.ReportID.
type reportCharacteristic struct {
	conn     *dbus.Conn
	path     dbus.ObjectPath
	reportID uint8
	notify   notifyState
}

func newReportCharacteristic(conn *dbus.Conn, path dbus.ObjectPath, reportID uint8, initial []byte) *reportCharacteristic {
	c := &reportCharacteristic{conn: conn, path: path, reportID: reportID}
	c.notify.value = initial
	return c
}

// ReadValue implements GattCharacteristic1.ReadValue.
func (c *reportCharacteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return c.notify.readValue(), nil
}

// StartNotify implements GattCharacteristic1.StartNotify.
func (c *reportCharacteristic) StartNotify() *dbus.Error {
	c.notify.startNotify()
	return nil
}

// StopNotify implements GattCharacteristic1.StopNotify.
func (c *reportCharacteristic) StopNotify() *dbus.Error {
	c.notify.stopNotify()
	return nil
}

// push serializes a new report into the characteristic's value and, if a
// central is subscribed, emits PropertiesChanged so BlueZ turns it into
// an ATT HandleValueNotification.
func (c *reportCharacteristic) push(value []byte) {
	emit, stored := c.notify.push(value)
	if !emit || c.conn == nil {
		return
	}
	changed := map[string]dbus.Variant{"Value": dbus.MakeVariant(stored)}
	_ = c.conn.Emit(c.path, PropertiesIface+".PropertiesChanged", GattCharIface, changed, []string{})
}

// controlPointCharacteristic is the write-only, value-ignored HID Control
// Point (0x2A4C): hosts use it to signal Suspend/Exit-Suspend, which this
// server does not act on.
type controlPointCharacteristic struct{}

// WriteValue implements GattCharacteristic1.WriteValue; the value is
// intentionally discarded.
func (controlPointCharacteristic) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	return nil
}

// protocolModeCharacteristic always reports Report Mode (0x01); this
// server never implements Boot Protocol Mode.
type protocolModeCharacteristic struct{}

func (protocolModeCharacteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return []byte{0x01}, nil
}

func (protocolModeCharacteristic) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	return nil
}

// reportReferenceDescriptor is the 0x2908 descriptor attached to each
// Report characteristic, identifying its report ID and Input type.
type reportReferenceDescriptor struct {
	reportID uint8
}

func (d reportReferenceDescriptor) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return []byte{d.reportID, ReportTypeInput}, nil
}
