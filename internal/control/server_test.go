package control_test

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/hidperiphd/internal/control"
	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/inputstate"
)

// fakeSink is a no-op dispatcher.Sink so the control-socket tests never
// touch real BLE/USB transports.
type fakeSink struct {
	pushed []uint8
}

func (f *fakeSink) Start() error { return nil }
func (f *fakeSink) Stop() error  { return nil }
func (f *fakeSink) Push(reportID uint8, value []byte) error {
	f.pushed = append(f.pushed, reportID)
	return nil
}

func newTestServer(t *testing.T) (*control.Server, *dispatcher.Dispatcher, *inputstate.State) {
	t.Helper()
	state := inputstate.New()
	factory := func(dispatcher.Mode) (dispatcher.Sink, error) { return &fakeSink{}, nil }
	disp := dispatcher.New(state, factory, nil)

	srv := control.New(disp, state, control.Config{Addr: "127.0.0.1:0"}, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Close)
	return srv, disp, state
}

func sendCommand(t *testing.T, addr, path, payload string) map[string]any {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := path
	if payload != "" {
		req += " " + payload
	}
	_, err = conn.Write([]byte(req + "\x00"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	return out
}

func TestControlServer_StatusReflectsDispatcherPhase(t *testing.T) {
	srv, _, _ := newTestServer(t)

	out := sendCommand(t, srv.Addr(), "status", "")
	require.Equal(t, "off", out["phase"])
}

func TestControlServer_StartStopRoundTrip(t *testing.T) {
	srv, disp, _ := newTestServer(t)

	out := sendCommand(t, srv.Addr(), "start", `{"mode":"ble"}`)
	require.Equal(t, true, out["ok"])
	require.Equal(t, dispatcher.Running, disp.Phase())

	out = sendCommand(t, srv.Addr(), "stop", "")
	require.Equal(t, true, out["ok"])
	require.Equal(t, dispatcher.Off, disp.Phase())
}

func TestControlServer_UnknownModeIsConfigError(t *testing.T) {
	srv, _, _ := newTestServer(t)

	out := sendCommand(t, srv.Addr(), "start", `{"mode":"bogus"}`)
	require.Contains(t, out["error"], "unknown mode")
}

func TestControlServer_InjectButtonReachesInputState(t *testing.T) {
	srv, _, state := newTestServer(t)

	out := sendCommand(t, srv.Addr(), "inject", `{"kind":"button","buttonId":1,"pressed":true}`)
	require.Equal(t, true, out["ok"])
	require.NotZero(t, state.Dirty()&inputstate.DirtyGamepad)
}
