package hog

import "github.com/godbus/dbus/v5"

const advertisementPath dbus.ObjectPath = "/org/hidperiphd/hog/adv0"

// AdvertisementConfig configures the LE advertisement object. Appearance
// defaults to 0x03C4 (HID Gamepad) but is a config field per the Open
// Question resolved in DESIGN.md rather than a hardcoded value.
type AdvertisementConfig struct {
	LocalName  string
	Appearance uint16
}

// DefaultAppearance is the Bluetooth SIG "Gamepad" appearance value.
const DefaultAppearance = 0x03C4

// advertisement implements LEAdvertisement1.
type advertisement struct {
	cfg AdvertisementConfig
}

func newAdvertisement(cfg AdvertisementConfig) *advertisement {
	if cfg.Appearance == 0 {
		cfg.Appearance = DefaultAppearance
	}
	return &advertisement{cfg: cfg}
}

// Release implements LEAdvertisement1.Release, called by bluetoothd when
// the advertisement is unregistered or the adapter powers off.
func (a *advertisement) Release() *dbus.Error { return nil }

func (a *advertisement) properties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Type":         dbus.MakeVariant("peripheral"),
		"ServiceUUIDs": dbus.MakeVariant([]string{UUIDHIDService}),
		"LocalName":    dbus.MakeVariant(a.cfg.LocalName),
		"Includes":     dbus.MakeVariant([]string{"tx-power"}),
		"Appearance":   dbus.MakeVariant(a.cfg.Appearance),
	}
}

// Get implements org.freedesktop.DBus.Properties.Get for this object.
func (a *advertisement) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if v, ok := a.properties()[prop]; ok {
		return v, nil
	}
	return dbus.Variant{}, dbus.MakeFailedError(errUnknownProperty(prop))
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (a *advertisement) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	return a.properties(), nil
}
