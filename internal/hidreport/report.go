package hidreport

import "fmt"

// BadReportID is returned by Encode when asked to build a report for an
// ID none of the three descriptor collections declare.
type BadReportID struct {
	ID uint8
}

func (e *BadReportID) Error() string {
	return fmt.Sprintf("hidreport: unknown report id %d", e.ID)
}

// Encodable is implemented by the three *State types.
type Encodable interface {
	Encode() []byte
}

// Encode builds the report-ID-prefixed wire bytes (ID byte + payload) for
// the given state, the framing the USB transport writes to /dev/hidgN
// and the GATT transport splits across its per-report characteristics.
func Encode(reportID uint8, state Encodable) ([]byte, error) {
	switch reportID {
	case ReportIDGamepad, ReportIDKeyboard, ReportIDMouse:
	default:
		return nil, &BadReportID{ID: reportID}
	}
	payload := state.Encode()
	out := make([]byte, 1+len(payload))
	out[0] = reportID
	copy(out[1:], payload)
	return out, nil
}
