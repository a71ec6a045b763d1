// Package hidreport implements the HID report descriptor and the codecs
// that turn gamepad/keyboard/mouse state into descriptor-compliant bytes.
//
// Three report IDs share one descriptor, the shape device/xbox360,
// device/keyboard and device/mouse each built independently in the
// teacher repo: one Application collection per logical device.
package hidreport

import "github.com/Alia5/hidperiphd/internal/hid"

// Report IDs, used both as the USB transport's leading byte and as the
// GATT transport's Report Reference descriptor value.
const (
	ReportIDGamepad  = 1
	ReportIDKeyboard = 2
	ReportIDMouse    = 3
)

// Payload sizes, excluding the report ID byte (which only the USB
// transport prepends; the GATT transport carries it implicitly in which
// characteristic holds the value).
const (
	GamepadPayloadLen  = 13
	KeyboardPayloadLen = 8
	MousePayloadLen    = 7
)

var descriptor = hid.Report{Items: []hid.Item{
	// --- Report ID 1: gamepad ---
	hid.UsagePage{Page: hid.UsagePageGenericDesktop},
	hid.Usage{Usage: hid.UsageGamepad},
	hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
		hid.ReportID{ID: ReportIDGamepad},

		hid.UsagePage{Page: hid.UsagePageButton},
		hid.UsageMinimum{Min: 1},
		hid.UsageMaximum{Max: 11},
		hid.LogicalMinimum{Min: 0},
		hid.LogicalMaximum{Max: 1},
		hid.ReportSize{Bits: 1},
		hid.ReportCount{Count: 11},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
		hid.ReportSize{Bits: 1},
		hid.ReportCount{Count: 5},
		hid.Input{Flags: hid.MainConst},

		hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		hid.Usage{Usage: hid.UsageX},
		hid.Usage{Usage: hid.UsageY},
		hid.Usage{Usage: hid.UsageRx},
		hid.Usage{Usage: hid.UsageRy},
		hid.LogicalMinimum{Min: -32768},
		hid.LogicalMaximum{Max: 32767},
		hid.ReportSize{Bits: 16},
		hid.ReportCount{Count: 4},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

		hid.UsagePage{Page: hid.UsagePageSimulation},
		hid.Usage{Usage: hid.UsageBrake},
		hid.Usage{Usage: hid.UsageAccelerator},
		hid.LogicalMinimum{Min: 0},
		hid.LogicalMaximum{Max: 255},
		hid.ReportSize{Bits: 8},
		hid.ReportCount{Count: 2},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

		hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		hid.Usage{Usage: hid.UsageHatSwitch},
		hid.LogicalMinimum{Min: 0},
		hid.LogicalMaximum{Max: 7},
		hid.ReportSize{Bits: 4},
		hid.ReportCount{Count: 1},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs | hid.MainNullState},
		hid.ReportSize{Bits: 4},
		hid.ReportCount{Count: 1},
		hid.Input{Flags: hid.MainConst},
	}},

	// --- Report ID 2: boot-style keyboard ---
	hid.UsagePage{Page: hid.UsagePageGenericDesktop},
	hid.Usage{Usage: hid.UsageKeyboard},
	hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
		hid.ReportID{ID: ReportIDKeyboard},

		hid.UsagePage{Page: hid.UsagePageKeyboard},
		hid.UsageMinimum{Min: 0xE0},
		hid.UsageMaximum{Max: 0xE7},
		hid.LogicalMinimum{Min: 0},
		hid.LogicalMaximum{Max: 1},
		hid.ReportSize{Bits: 1},
		hid.ReportCount{Count: 8},
		hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

		hid.ReportSize{Bits: 8},
		hid.ReportCount{Count: 1},
		hid.Input{Flags: hid.MainConst},

		hid.ReportSize{Bits: 8},
		hid.ReportCount{Count: 6},
		hid.LogicalMinimum{Min: 0},
		hid.LogicalMaximum{Max: 255},
		hid.UsagePage{Page: hid.UsagePageKeyboard},
		hid.UsageMinimum{Min: 0},
		hid.UsageMaximum{Max: 255},
		hid.Input{Flags: hid.MainData | hid.MainArray | hid.MainAbs},
	}},

	// --- Report ID 3: mouse ---
	hid.UsagePage{Page: hid.UsagePageGenericDesktop},
	hid.Usage{Usage: hid.UsageMouse},
	hid.Collection{Kind: hid.CollectionApplication, Items: []hid.Item{
		hid.Usage{Usage: hid.UsagePointer},
		hid.Collection{Kind: hid.CollectionPhysical, Items: []hid.Item{
			hid.ReportID{ID: ReportIDMouse},

			hid.UsagePage{Page: hid.UsagePageButton},
			hid.UsageMinimum{Min: 1},
			hid.UsageMaximum{Max: 3},
			hid.LogicalMinimum{Min: 0},
			hid.LogicalMaximum{Max: 1},
			hid.ReportCount{Count: 3},
			hid.ReportSize{Bits: 1},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
			hid.ReportCount{Count: 1},
			hid.ReportSize{Bits: 5},
			hid.Input{Flags: hid.MainConst},

			hid.UsagePage{Page: hid.UsagePageGenericDesktop},
			hid.Usage{Usage: hid.UsageX},
			hid.Usage{Usage: hid.UsageY},
			hid.LogicalMinimum{Min: -32768},
			hid.LogicalMaximum{Max: 32767},
			hid.ReportSize{Bits: 16},
			hid.ReportCount{Count: 2},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainRel},

			hid.Usage{Usage: hid.UsageWheel},
			hid.LogicalMinimum{Min: -127},
			hid.LogicalMaximum{Max: 127},
			hid.ReportSize{Bits: 8},
			hid.ReportCount{Count: 1},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainRel},

			hid.UsagePage{Page: hid.UsagePageConsumer},
			hid.Usage{Usage: hid.UsageACPan},
			hid.LogicalMinimum{Min: -127},
			hid.LogicalMaximum{Max: 127},
			hid.ReportSize{Bits: 8},
			hid.ReportCount{Count: 1},
			hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainRel},
		}},
	}},
}}

var descriptorBytes = descriptor.Bytes()

// Descriptor returns the HID Report Descriptor bytes. The slice is shared
// and must not be mutated by callers; it never changes between calls.
func Descriptor() []byte {
	return descriptorBytes
}

// MaxReportLen is the longest report including its leading report-ID byte,
// the value the USB gadget's report_length attribute must carry.
const MaxReportLen = 1 + GamepadPayloadLen
