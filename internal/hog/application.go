package hog

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/Alia5/hidperiphd/internal/hidreport"
)

const (
	rootPath        dbus.ObjectPath = "/org/hidperiphd/hog"
	servicePath     dbus.ObjectPath = rootPath + "/service0"
	hidInfoPath     dbus.ObjectPath = servicePath + "/char0"
	reportMapPath   dbus.ObjectPath = servicePath + "/char1"
	controlPath     dbus.ObjectPath = servicePath + "/char2"
	protocolPath    dbus.ObjectPath = servicePath + "/char6"
)

func reportPath(reportID uint8) dbus.ObjectPath {
	// char3/4/5 for gamepad/keyboard/mouse, per spec.md §4.4's table.
	return dbus.ObjectPath(fmt.Sprintf("%s/char%d", servicePath, 2+int(reportID)))
}

func reportRefPath(reportID uint8) dbus.ObjectPath {
	return reportPath(reportID) + "/desc0"
}

// Application is the exported GATT object tree: one HID service with its
// information/report-map/control-point/protocol-mode characteristics and
// one Report characteristic (+ Report Reference descriptor) per report ID.
type Application struct {
	conn *dbus.Conn

	reportChars map[uint8]*reportCharacteristic
}

// NewApplication builds and exports the object tree on conn. Objects are
// exported but not yet registered with BlueZ; call Server.Start for that.
func NewApplication(conn *dbus.Conn) (*Application, error) {
	app := &Application{conn: conn, reportChars: make(map[uint8]*reportCharacteristic)}

	if err := conn.Export(app, rootPath, ObjectManagerIface); err != nil {
		return nil, fmt.Errorf("hog: export object manager: %w", err)
	}

	hidInfo := hidInformationCharacteristic{}
	if err := conn.Export(hidInfo, hidInfoPath, GattCharIface); err != nil {
		return nil, fmt.Errorf("hog: export HID information: %w", err)
	}

	reportMap := reportMapCharacteristic{}
	if err := conn.Export(reportMap, reportMapPath, GattCharIface); err != nil {
		return nil, fmt.Errorf("hog: export report map: %w", err)
	}

	if err := conn.Export(controlPointCharacteristic{}, controlPath, GattCharIface); err != nil {
		return nil, fmt.Errorf("hog: export control point: %w", err)
	}

	if err := conn.Export(protocolModeCharacteristic{}, protocolPath, GattCharIface); err != nil {
		return nil, fmt.Errorf("hog: export protocol mode: %w", err)
	}

	for _, id := range []uint8{hidreport.ReportIDGamepad, hidreport.ReportIDKeyboard, hidreport.ReportIDMouse} {
		path := reportPath(id)
		initial := make([]byte, reportPayloadLen(id))
		rc := newReportCharacteristic(conn, path, id, initial)
		if err := conn.Export(rc, path, GattCharIface); err != nil {
			return nil, fmt.Errorf("hog: export report char %d: %w", id, err)
		}
		ref := reportReferenceDescriptor{reportID: id}
		if err := conn.Export(ref, reportRefPath(id), GattDescIface); err != nil {
			return nil, fmt.Errorf("hog: export report reference %d: %w", id, err)
		}
		app.reportChars[id] = rc
	}

	return app, nil
}

func reportPayloadLen(reportID uint8) int {
	switch reportID {
	case hidreport.ReportIDGamepad:
		return hidreport.GamepadPayloadLen
	case hidreport.ReportIDKeyboard:
		return hidreport.KeyboardPayloadLen
	case hidreport.ReportIDMouse:
		return hidreport.MousePayloadLen
	default:
		return 0
	}
}

// Push serializes value onto the Report characteristic for reportID. A
// push for an unknown report ID is a no-op.
func (a *Application) Push(reportID uint8, value []byte) {
	if rc, ok := a.reportChars[reportID]; ok {
		rc.push(value)
	}
}

// RootPath is the application root BlueZ registers.
func (a *Application) RootPath() dbus.ObjectPath { return rootPath }

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager, the
// interface bluetoothd walks to discover this application's tree.
func (a *Application) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	objs := map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
		servicePath: {
			GattServiceIface: {
				"UUID":    dbus.MakeVariant(UUIDHIDService),
				"Primary": dbus.MakeVariant(true),
			},
		},
		hidInfoPath: charProps(UUIDHIDInformation, servicePath, []string{FlagRead}),
		reportMapPath: charProps(UUIDReportMap, servicePath, []string{FlagRead}),
		controlPath: charProps(UUIDHIDControlPoint, servicePath, []string{FlagWriteWithoutResp}),
		protocolPath: charProps(UUIDProtocolMode, servicePath, []string{FlagRead, FlagWriteWithoutResp}),
	}
	for id, rc := range a.reportChars {
		objs[rc.path] = charProps(UUIDReport, servicePath, []string{FlagRead, FlagNotify})
		objs[reportRefPath(id)] = map[string]map[string]dbus.Variant{
			GattDescIface: {
				"UUID":           dbus.MakeVariant(UUIDReportReference),
				"Characteristic": dbus.MakeVariant(rc.path),
			},
		}
	}
	return objs, nil
}

func charProps(uuid string, service dbus.ObjectPath, flags []string) map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		GattCharIface: {
			"UUID":    dbus.MakeVariant(uuid),
			"Service": dbus.MakeVariant(service),
			"Flags":   dbus.MakeVariant(flags),
		},
	}
}

// hidInformationCharacteristic is the fixed 0x2A4A value: bcdHID 1.11,
// country code 0 (not localized), flags 0x03 (RemoteWake|NormallyConnectable).
type hidInformationCharacteristic struct{}

func (hidInformationCharacteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return []byte{0x11, 0x01, 0x00, 0x03}, nil
}

// reportMapCharacteristic serves the HID Report Descriptor bytes.
type reportMapCharacteristic struct{}

func (reportMapCharacteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return hidreport.Descriptor(), nil
}
