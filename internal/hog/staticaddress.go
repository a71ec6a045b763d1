package hog

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// ValidateStaticAddress checks addr against spec.md §6's format: six
// colon-separated hex octets, with the top two bits of the first octet
// set to 11 (first hex digit in C-F) as the static-random-address type
// tag Core Spec Vol 6 Part B §1.3.2.1 requires.
func ValidateStaticAddress(addr string) error {
	parts := strings.Split(addr, ":")
	if len(parts) != 6 {
		return &InvalidStaticAddress{Addr: addr, Reason: "expected six colon-separated hex octets"}
	}
	for _, p := range parts {
		if len(p) != 2 {
			return &InvalidStaticAddress{Addr: addr, Reason: "each octet must be two hex digits"}
		}
		if _, err := strconv.ParseUint(p, 16, 8); err != nil {
			return &InvalidStaticAddress{Addr: addr, Reason: "octet is not valid hex: " + p}
		}
	}
	switch parts[0][0] {
	case 'c', 'd', 'e', 'f', 'C', 'D', 'E', 'F':
	default:
		return &InvalidStaticAddress{Addr: addr, Reason: "top two bits of the first octet must be 11 (first hex digit C-F)"}
	}
	return nil
}

// programStaticAddress runs the platform's btmgmt tool through the power
// off / set static address / power on sequence. BlueZ has no stable D-Bus
// API for programming a static random address, so this shells out the
// same way the bluetoothctl/btmgmt CLIs do; adapterPath is only used to
// derive the hci index btmgmt expects.
func programStaticAddress(conn *dbus.Conn, adapterPath dbus.ObjectPath, addr string) error {
	if err := ValidateStaticAddress(addr); err != nil {
		return err
	}
	index, err := hciIndex(adapterPath)
	if err != nil {
		return err
	}
	steps := [][]string{
		{"power", "off", index},
		{"static-addr", addr, index},
		{"power", "on", index},
	}
	for _, args := range steps {
		cmd := exec.Command("btmgmt", args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("btmgmt %v: %w: %s", args, err, out)
		}
	}
	return nil
}

// hciIndex extracts "0" from "/org/bluez/hci0".
func hciIndex(adapterPath dbus.ObjectPath) (string, error) {
	s := string(adapterPath)
	const prefix = "/org/bluez/hci"
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", fmt.Errorf("hog: unrecognized adapter path %q", adapterPath)
	}
	return s[len(prefix):], nil
}
