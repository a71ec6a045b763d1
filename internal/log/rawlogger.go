package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Alia5/hidperiphd/internal/hidreport"
)

// RawLogger hex-dumps report traffic crossing the Dispatcher/transport
// boundary when the control binary's verbose/trace option is set.
type RawLogger interface {
	Log(in bool, data []byte)
}

// rawLogger implements RawLogger with thread-safe log.
type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// reportName maps the leading report ID byte to the device it encodes,
// so a trace line reads "gamepad"/"keyboard"/"mouse" instead of a bare
// direction arrow.
func reportName(id byte) string {
	switch id {
	case hidreport.ReportIDGamepad:
		return "gamepad"
	case hidreport.ReportIDKeyboard:
		return "keyboard"
	case hidreport.ReportIDMouse:
		return "mouse"
	default:
		return fmt.Sprintf("report%d", id)
	}
}

// Log emits a single-line raw packet log with timestamp, report name,
// and hex dump. data's first byte is the report ID, per the wire
// framing SnapshotAndClearRelative/sink.Push share. in=true means a
// report the host sent to us (e.g. a keyboard LED output report);
// in=false means a report we pushed to the active transport.
func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 {
		return
	}
	if r.w == nil {
		return
	}

	dir := "OUT"
	if in {
		dir = "IN"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s %s: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		reportName(data[0]),
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
