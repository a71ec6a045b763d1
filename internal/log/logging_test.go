package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace": LevelTrace,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	_, err := ParseLevel("bogus")
	assert.Error(t, err)
}

func TestMultiHandler_FansOutToBoth(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)
	logger := slog.New(h)
	logger.Info("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestLevelFilter_DropsBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	f := NewLevelFilter(func(l slog.Level) bool { return l >= slog.LevelWarn }, slog.NewTextHandler(&buf, nil))
	logger := slog.New(f)
	logger.Info("swallowed")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "swallowed")
	assert.Contains(t, buf.String(), "kept")
}

func TestRawLogger_NilWriterIsNoop(t *testing.T) {
	r := NewRaw(nil)
	assert.NotPanics(t, func() { r.Log(true, []byte{0x01, 0x02}) })
}

func TestRawLogger_WritesHexDump(t *testing.T) {
	var buf bytes.Buffer
	r := NewRaw(&buf)
	r.Log(false, []byte{0xAB, 0xCD})
	assert.Contains(t, buf.String(), "ab cd")
	assert.Contains(t, buf.String(), "OUT")
}

func TestRawLogger_TagsKnownReportIDs(t *testing.T) {
	var buf bytes.Buffer
	r := NewRaw(&buf)
	r.Log(false, []byte{1, 0x00})
	r.Log(true, []byte{2, 0x00})
	r.Log(false, []byte{3, 0x00})
	out := buf.String()
	assert.Contains(t, out, "gamepad")
	assert.Contains(t, out, "keyboard")
	assert.Contains(t, out, "mouse")
}
