package dispatcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/hidperiphd/internal/hidreport"
	"github.com/Alia5/hidperiphd/internal/inputstate"
)

type fakeSink struct {
	mu      sync.Mutex
	started bool
	stopped bool
	pushes  []uint8
	pushErr error
}

func (f *fakeSink) Start() error { f.mu.Lock(); defer f.mu.Unlock(); f.started = true; return nil }
func (f *fakeSink) Stop() error  { f.mu.Lock(); defer f.mu.Unlock(); f.stopped = true; return nil }
func (f *fakeSink) Push(reportID uint8, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, reportID)
	return nil
}

func (f *fakeSink) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func TestStart_InvalidModeIsNotRejectedByDispatcher(t *testing.T) {
	sink := &fakeSink{}
	d := New(inputstate.New(), func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.Start(Mode(99)))
	assert.Equal(t, Running, d.Phase())
	require.NoError(t, d.Stop())
	assert.Equal(t, Off, d.Phase())
}

func TestStart_RejectedWhenNotOff(t *testing.T) {
	sink := &fakeSink{}
	d := New(inputstate.New(), func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.Start(ModeBLE))
	defer d.Stop()
	assert.Error(t, d.Start(ModeUSB))
}

func TestSetRateHz_OutOfRange(t *testing.T) {
	d := New(inputstate.New(), nil, nil)
	assert.Error(t, d.SetRateHz(0))
	assert.Error(t, d.SetRateHz(300))
	assert.NoError(t, d.SetRateHz(50))
}

func TestTransmitLoop_DirtyMousePushed(t *testing.T) {
	st := inputstate.New()
	sink := &fakeSink{}
	d := New(st, func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.SetRateHz(MaxRateHz))
	require.NoError(t, d.Start(ModeUSB))
	defer d.Stop()

	st.MoveMouse(1, 0)

	require.Eventually(t, func() bool { return sink.pushCount() > 0 }, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	pushes := append([]uint8(nil), sink.pushes...)
	sink.mu.Unlock()
	assert.Contains(t, pushes, uint8(hidreport.ReportIDMouse))
}

func TestTransmitLoop_CleanGamepadAndMouseSuppressed(t *testing.T) {
	st := inputstate.New()
	sink := &fakeSink{}
	d := New(st, func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.SetRateHz(MaxRateHz))
	require.NoError(t, d.Start(ModeUSB))
	defer d.Stop()

	time.Sleep(30 * time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, id := range sink.pushes {
		assert.NotEqual(t, uint8(hidreport.ReportIDGamepad), id, "gamepad must stay suppressed with no dirty state")
		assert.NotEqual(t, uint8(hidreport.ReportIDMouse), id, "idle mouse must stay suppressed with no pending motion")
	}
}

func TestTransmitLoop_SetRateHzTakesEffectWithoutRestart(t *testing.T) {
	st := inputstate.New()
	sink := &fakeSink{}
	d := New(st, func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.SetRateHz(2))
	require.NoError(t, d.Start(ModeUSB))
	defer d.Stop()

	require.NoError(t, d.SetRateHz(MaxRateHz))
	st.SetButton(1, true)

	require.Eventually(t, func() bool { return sink.pushCount() > 0 }, time.Second, 5*time.Millisecond,
		"rate change must speed up the transmit loop without a Stop/Start cycle")
}

func TestTransmitLoop_FaultTransitionsToOff(t *testing.T) {
	st := inputstate.New()
	sink := &fakeSink{pushErr: errors.New("boom")}
	d := New(st, func(Mode) (Sink, error) { return sink, nil }, nil)
	require.NoError(t, d.SetRateHz(MaxRateHz))
	require.NoError(t, d.Start(ModeUSB))

	st.SetButton(1, true) // clean reports are never pushed, so dirty one to reach the failing Push

	require.Eventually(t, func() bool { return d.Phase() == Off }, time.Second, 5*time.Millisecond)
}
