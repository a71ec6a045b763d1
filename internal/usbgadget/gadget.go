// Package usbgadget builds and tears down a composite HID gadget in the
// kernel's configfs hierarchy, and provides the blocking write path to
// the resulting /dev/hidgN character device. File-tree construction
// follows the plain os.* + sysfs-attribute-file style the teacher and
// the malivvan-aegis hidraw reader both use for kernel virtual
// filesystems: no configfs library, just ordered file/symlink writes.
package usbgadget

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/Alia5/hidperiphd/internal/hidreport"
)

const configfsRoot = "/sys/kernel/config/usb_gadget"

// Device descriptor constants from spec.md §4.5.
const (
	idVendor     = 0x28DE
	idProduct    = 0x1205
	bcdDevice    = 0x0100
	bcdUSB       = 0x0200
	maxPowerMA   = 250
)

// NoUDCAvailable is returned when no entry exists under
// /sys/class/udc to bind the gadget to.
type NoUDCAvailable struct{}

func (NoUDCAvailable) Error() string { return "usbgadget: no UDC available" }

// ConfigfsNotMounted is returned when /sys/kernel/config/usb_gadget does
// not exist.
type ConfigfsNotMounted struct{}

func (ConfigfsNotMounted) Error() string { return "usbgadget: configfs not mounted" }

// GadgetAlreadyExists is returned when a directory for the requested
// gadget name is already present.
type GadgetAlreadyExists struct{ Name string }

func (e *GadgetAlreadyExists) Error() string {
	return fmt.Sprintf("usbgadget: gadget %q already exists", e.Name)
}

// Config configures gadget bring-up.
type Config struct {
	// Name is the configfs gadget directory name (e.g. "hidperiphd").
	Name string
	// Manufacturer, Product, Serial populate the English (0x409) string
	// descriptors.
	Manufacturer, Product, Serial string
}

// Gadget owns the configfs tree and the open hidg character device for
// one bring-up/teardown lifecycle.
type Gadget struct {
	cfg     Config
	root    string
	hidgPath string
	hidg    *os.File
}

// Bringup constructs the configfs tree and activates it against the
// first available UDC, per spec.md §4.5. It performs no partial writes:
// any failure after validating preconditions removes whatever was
// already created.
func Bringup(cfg Config) (*Gadget, error) {
	if _, err := os.Stat(configfsRoot); err != nil {
		return nil, ConfigfsNotMounted{}
	}
	root := filepath.Join(configfsRoot, cfg.Name)
	if _, err := os.Stat(root); err == nil {
		return nil, &GadgetAlreadyExists{Name: cfg.Name}
	}

	udc, err := firstUDC()
	if err != nil {
		return nil, err
	}

	g := &Gadget{cfg: cfg, root: root}
	if err := g.build(); err != nil {
		g.teardownBestEffort()
		return nil, err
	}
	if err := writeFile(filepath.Join(root, "UDC"), udc); err != nil {
		g.teardownBestEffort()
		return nil, fmt.Errorf("usbgadget: activate UDC: %w", err)
	}

	hidgPath, err := findHidg(root)
	if err != nil {
		g.teardownBestEffort()
		return nil, err
	}
	g.hidgPath = hidgPath

	fd, err := unix.Open(hidgPath, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		g.teardownBestEffort()
		return nil, fmt.Errorf("usbgadget: open %s: %w", hidgPath, err)
	}
	g.hidg = os.NewFile(uintptr(fd), hidgPath)
	return g, nil
}

func (g *Gadget) build() error {
	mkdirs := []string{
		g.root,
		filepath.Join(g.root, "strings/0x409"),
		filepath.Join(g.root, "configs/c.1"),
		filepath.Join(g.root, "configs/c.1/strings/0x409"),
		filepath.Join(g.root, "functions/hid.usb0"),
	}
	for _, dir := range mkdirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("usbgadget: mkdir %s: %w", dir, err)
		}
	}

	attrs := map[string]string{
		"idVendor":  hex16(idVendor),
		"idProduct": hex16(idProduct),
		"bcdDevice": hex16(bcdDevice),
		"bcdUSB":    hex16(bcdUSB),
	}
	for name, value := range attrs {
		if err := writeFile(filepath.Join(g.root, name), value); err != nil {
			return err
		}
	}

	strs := map[string]string{
		"serialnumber": g.cfg.Serial,
		"manufacturer": g.cfg.Manufacturer,
		"product":      g.cfg.Product,
	}
	for name, value := range strs {
		if err := writeFile(filepath.Join(g.root, "strings/0x409", name), value); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(g.root, "configs/c.1/MaxPower"), fmt.Sprintf("%d", maxPowerMA)); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(g.root, "configs/c.1/strings/0x409/configuration"), "HID"); err != nil {
		return err
	}

	hidAttrs := map[string]string{
		"protocol":      "0",
		"subclass":      "0",
		"report_length": fmt.Sprintf("%d", hidreport.MaxReportLen),
	}
	for name, value := range hidAttrs {
		if err := writeFile(filepath.Join(g.root, "functions/hid.usb0", name), value); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(g.root, "functions/hid.usb0/report_desc"), hidreport.Descriptor(), 0644); err != nil {
		return fmt.Errorf("usbgadget: write report_desc: %w", err)
	}

	link := filepath.Join(g.root, "configs/c.1/hid.usb0")
	if err := os.Symlink(filepath.Join(g.root, "functions/hid.usb0"), link); err != nil {
		return fmt.Errorf("usbgadget: link function into config: %w", err)
	}

	return nil
}

// Teardown reverses every bringup step. It tolerates partial failure:
// unlinks and directory removals that fail because the target is
// already gone are not errors.
func (g *Gadget) Teardown() error {
	if g.hidg != nil {
		_ = g.hidg.Close()
		g.hidg = nil
	}
	if g.root == "" {
		return nil
	}
	if err := writeFile(filepath.Join(g.root, "UDC"), ""); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("usbgadget: deactivate UDC: %w", err)
	}
	g.teardownBestEffort()
	return nil
}

func (g *Gadget) teardownBestEffort() {
	_ = os.Remove(filepath.Join(g.root, "configs/c.1/hid.usb0"))
	_ = os.RemoveAll(filepath.Join(g.root, "functions/hid.usb0"))
	_ = os.RemoveAll(filepath.Join(g.root, "configs/c.1/strings/0x409"))
	_ = os.RemoveAll(filepath.Join(g.root, "configs/c.1"))
	_ = os.RemoveAll(filepath.Join(g.root, "strings/0x409"))
	_ = os.RemoveAll(g.root)
}

func firstUDC() (string, error) {
	entries, err := os.ReadDir("/sys/class/udc")
	if err != nil || len(entries) == 0 {
		return "", NoUDCAvailable{}
	}
	return entries[0].Name(), nil
}

// findHidg locates the /dev/hidgN node the kernel creates for this
// gadget's HID function. With exactly one HID function per gadget, the
// kernel always assigns it hidg0.
func findHidg(gadgetRoot string) (string, error) {
	const path = "/dev/hidg0"
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("usbgadget: hidg device node did not appear: %w", err)
	}
	return path, nil
}

func hex16(v int) string { return fmt.Sprintf("0x%04x", v) }

func writeFile(path, value string) error {
	return os.WriteFile(path, []byte(value), 0644)
}
