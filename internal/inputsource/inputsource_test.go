package inputsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRescaleAxis_Midpoint(t *testing.T) {
	got := rescaleAxis(128, 0, 255)
	assert.InDelta(t, 0, int(got), 600, "midpoint of an 8-bit axis should land near zero")
}

func TestRescaleAxis_Extremes(t *testing.T) {
	assert.Equal(t, int16(-32768), rescaleAxis(-128, -128, 127))
	assert.Equal(t, int16(32767), rescaleAxis(127, -128, 127))
}

func TestRescaleAxis_DegenerateRange(t *testing.T) {
	assert.Equal(t, int16(0), rescaleAxis(5, 10, 10))
}

func TestRescaleTrigger_Extremes(t *testing.T) {
	assert.Equal(t, uint8(0), rescaleTrigger(0, 0, 255))
	assert.Equal(t, uint8(255), rescaleTrigger(255, 0, 255))
}

func TestClampI16(t *testing.T) {
	assert.Equal(t, int16(32767), clampI16(1e9))
	assert.Equal(t, int16(-32768), clampI16(-1e9))
	assert.Equal(t, int16(100), clampI16(100))
}

func TestClampU8(t *testing.T) {
	assert.Equal(t, uint8(255), clampU8(1e9))
	assert.Equal(t, uint8(0), clampU8(-1e9))
	assert.Equal(t, uint8(42), clampU8(42))
}

func TestButtonMap_CoversElevenButtons(t *testing.T) {
	seen := map[uint8]bool{}
	for _, idx := range buttonMap {
		seen[idx] = true
	}
	assert.Len(t, seen, 11)
}
