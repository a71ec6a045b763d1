// Package hog implements the BLE HID-over-GATT server: the object tree
// BlueZ's bluetoothd inspects via its GattManager1/LEAdvertisingManager1
// D-Bus interfaces, exported through github.com/godbus/dbus/v5 with no
// BlueZ-specific client library. Service, characteristic and descriptor
// properties reach bluetoothd through ObjectManager.GetManagedObjects;
// only the advertisement also exports org.freedesktop.DBus.Properties.
package hog

// Standard Bluetooth SIG UUIDs this server exposes.
const (
	UUIDHIDService        = "00001812-0000-1000-8000-00805f9b34fb"
	UUIDHIDInformation    = "00002a4a-0000-1000-8000-00805f9b34fb"
	UUIDReportMap         = "00002a4b-0000-1000-8000-00805f9b34fb"
	UUIDHIDControlPoint   = "00002a4c-0000-1000-8000-00805f9b34fb"
	UUIDReport            = "00002a4d-0000-1000-8000-00805f9b34fb"
	UUIDProtocolMode      = "00002a4e-0000-1000-8000-00805f9b34fb"
	UUIDReportReference   = "00002908-0000-1000-8000-00805f9b34fb"
)

// BlueZ D-Bus interface and bus names this package talks to.
const (
	BusName            = "org.bluez"
	AdapterInterface   = "org.bluez.Adapter1"
	GattManagerIface   = "org.bluez.GattManager1"
	GattServiceIface   = "org.bluez.GattService1"
	GattCharIface      = "org.bluez.GattCharacteristic1"
	GattDescIface      = "org.bluez.GattDescriptor1"
	LEAdvManagerIface  = "org.bluez.LEAdvertisingManager1"
	LEAdvertisementIface = "org.bluez.LEAdvertisement1"

	ObjectManagerIface = "org.freedesktop.DBus.ObjectManager"
	PropertiesIface    = "org.freedesktop.DBus.Properties"
)

// Characteristic flag strings, as BlueZ's GattCharacteristic1.Flags
// property expects them.
const (
	FlagRead                = "read"
	FlagWrite               = "write"
	FlagWriteWithoutResp    = "write-without-response"
	FlagNotify              = "notify"
)

// ReportReferenceType values for the 0x2908 descriptor.
const (
	ReportTypeInput = 0x01
)
