// Package hid provides a small builder DSL for HID report descriptors.
//
// Descriptors are assembled from Item values, mirroring the shape the
// teacher's device packages build them with (hid.Report{Items: []hid.Item{...}}),
// and flattened to the USB HID short-item byte encoding by Report.Bytes.
package hid

// Usage pages referenced by the three report layouts this program emits.
const (
	UsagePageGenericDesktop = 0x01
	UsagePageKeyboard       = 0x07
	UsagePageLEDs           = 0x08
	UsagePageButton         = 0x09
	UsagePageSimulation     = 0x02
	UsagePageConsumer       = 0x0C
)

// Usages within UsagePageGenericDesktop.
const (
	UsageJoystick  = 0x04
	UsageGamepad   = 0x05
	UsageMouse     = 0x02
	UsageKeyboard  = 0x06
	UsagePointer   = 0x01
	UsageX         = 0x30
	UsageY         = 0x31
	UsageRx        = 0x33
	UsageRy        = 0x34
	UsageHatSwitch = 0x39
	UsageWheel     = 0x38
)

// Usages within UsagePageSimulation (brake/accelerator pedals, reused for triggers).
const (
	UsageAccelerator = 0xC4
	UsageBrake       = 0xC5
)

// UsageACPan is the Consumer page usage for horizontal wheel/pan.
const UsageACPan = 0x238

// Collection kinds (Main item Collection tag values).
const (
	CollectionPhysical   = 0x00
	CollectionApplication = 0x01
	CollectionLogical    = 0x02
)

// Main item data flags (bit 0 of the flags byte selects Data vs Const, etc).
const (
	MainData     = 0x00
	MainConst    = 0x01
	MainArray    = 0x00
	MainVar      = 0x02
	MainAbs      = 0x00
	MainRel      = 0x04
)

// Item is one node of a report descriptor tree.
type Item interface {
	// emit appends this item's encoded bytes (and, for Collection, its
	// children's bytes plus a matching End Collection) to b.
	emit(b *encoder)
}

// Report is the root of a descriptor tree for a single top-level Application
// collection, or a flat list of items making up the whole multi-report
// descriptor when Items starts with its own UsagePage/Usage/Collection nodes.
type Report struct {
	Items []Item
}

// Bytes flattens the descriptor tree to USB HID short-item encoding.
func (r Report) Bytes() []byte {
	e := &encoder{}
	for _, it := range r.Items {
		it.emit(e)
	}
	return e.buf
}

type encoder struct{ buf []byte }

func (e *encoder) short(tag, typ byte, data []byte) {
	size := byte(len(data))
	switch {
	case size == 0:
	case size == 1:
		size = 1
	case size == 2:
		size = 2
	default:
		size = 3 // encodes as 4 bytes per HID spec (size code 3 = 4 bytes)
	}
	e.buf = append(e.buf, (tag<<4)|(typ<<2)|size)
	e.buf = append(e.buf, data...)
}

func u8(v uint8) []byte  { return []byte{v} }
func u16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func signedBytes(v int32) []byte {
	switch {
	case v >= -128 && v <= 127:
		return []byte{byte(int8(v))}
	case v >= -32768 && v <= 32767:
		return u16(uint16(int16(v)))
	default:
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
}

// Item tag/type constants from the USB HID specification (§6.2.2.4-7).
const (
	typMain   = 0
	typGlobal = 1
	typLocal  = 2

	tagUsagePage     = 0x0
	tagLogicalMin    = 0x1
	tagLogicalMax    = 0x2
	tagPhysicalMin   = 0x3
	tagPhysicalMax   = 0x4
	tagReportSize    = 0x7
	tagReportID      = 0x8
	tagReportCount   = 0x9
	tagInput         = 0x8
	tagOutput        = 0x9
	tagFeature       = 0xB
	tagCollection    = 0xA
	tagEndCollection = 0xC
	tagUsage         = 0x0
	tagUsageMin      = 0x1
	tagUsageMax      = 0x2
)

// UsagePage sets the active usage page (Global item).
type UsagePage struct{ Page uint16 }

func (i UsagePage) emit(e *encoder) {
	if i.Page <= 0xFF {
		e.short(tagUsagePage, typGlobal, u8(uint8(i.Page)))
	} else {
		e.short(tagUsagePage, typGlobal, u16(i.Page))
	}
}

// Usage declares a usage within the active usage page (Local item).
type Usage struct{ Usage uint32 }

func (i Usage) emit(e *encoder) {
	e.short(tagUsage, typLocal, signedBytes(int32(i.Usage)))
}

// UsageMinimum / UsageMaximum declare a usage range (Local items).
type UsageMinimum struct{ Min uint32 }
type UsageMaximum struct{ Max uint32 }

func (i UsageMinimum) emit(e *encoder) { e.short(tagUsageMin, typLocal, signedBytes(int32(i.Min))) }
func (i UsageMaximum) emit(e *encoder) { e.short(tagUsageMax, typLocal, signedBytes(int32(i.Max))) }

// LogicalMinimum / LogicalMaximum declare the value range (Global items).
type LogicalMinimum struct{ Min int32 }
type LogicalMaximum struct{ Max int32 }

func (i LogicalMinimum) emit(e *encoder) { e.short(tagLogicalMin, typGlobal, signedBytes(i.Min)) }
func (i LogicalMaximum) emit(e *encoder) { e.short(tagLogicalMax, typGlobal, signedBytes(i.Max)) }

// ReportSize / ReportCount declare field width and repetition (Global items).
type ReportSize struct{ Bits uint8 }
type ReportCount struct{ Count uint8 }

func (i ReportSize) emit(e *encoder)  { e.short(tagReportSize, typGlobal, u8(i.Bits)) }
func (i ReportCount) emit(e *encoder) { e.short(tagReportCount, typGlobal, u8(i.Count)) }

// ReportID declares the report ID prefixing subsequent Input/Output items
// until the next ReportID (Global item).
type ReportID struct{ ID uint8 }

func (i ReportID) emit(e *encoder) { e.short(tagReportID, typGlobal, u8(i.ID)) }

// Input / Output / Feature are Main items describing a data field.
type Input struct{ Flags uint8 }
type Output struct{ Flags uint8 }
type Feature struct{ Flags uint8 }

func (i Input) emit(e *encoder)   { e.short(tagInput, typMain, u8(i.Flags)) }
func (i Output) emit(e *encoder)  { e.short(tagOutput, typMain, u8(i.Flags)) }
func (i Feature) emit(e *encoder) { e.short(tagFeature, typMain, u8(i.Flags)) }

// Collection opens a Main Collection item, emits Items, then closes it
// with a matching End Collection.
type Collection struct {
	Kind  uint8
	Items []Item
}

func (i Collection) emit(e *encoder) {
	e.short(tagCollection, typMain, u8(i.Kind))
	for _, it := range i.Items {
		it.emit(e)
	}
	e.buf = append(e.buf, (tagEndCollection<<4)|(typMain<<2))
}
