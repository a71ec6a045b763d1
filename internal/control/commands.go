package control

import (
	"encoding/json"
	"fmt"

	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/inputstate"
)

func parseMode(s string) (dispatcher.Mode, error) {
	switch s {
	case "ble":
		return dispatcher.ModeBLE, nil
	case "usb":
		return dispatcher.ModeUSB, nil
	default:
		return 0, &ConfigError{Detail: fmt.Sprintf("unknown mode %q (want ble or usb)", s)}
	}
}

func (s *Server) handleStatus() (any, error) {
	phase := s.disp.Phase()
	mode := "ble"
	if s.disp.Mode() == dispatcher.ModeUSB {
		mode = "usb"
	}
	return StatusResponse{Phase: phase.String(), Mode: mode}, nil
}

func (s *Server) handleStart(payload string) (any, error) {
	var req StartRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, &ConfigError{Detail: "malformed start payload: " + err.Error()}
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.disp.Start(mode); err != nil {
		return nil, err
	}
	return okResponse{OK: true}, nil
}

func (s *Server) handleStop() (any, error) {
	if err := s.disp.Stop(); err != nil {
		return nil, err
	}
	return okResponse{OK: true}, nil
}

func (s *Server) handleSetMode(payload string) (any, error) {
	var req SetModeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, &ConfigError{Detail: "malformed setmode payload: " + err.Error()}
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.disp.Stop(); err != nil {
		return nil, err
	}
	if err := s.disp.Start(mode); err != nil {
		return nil, err
	}
	return okResponse{OK: true}, nil
}

func (s *Server) handleSetRate(payload string) (any, error) {
	var req SetRateRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, &ConfigError{Detail: "malformed setrate payload: " + err.Error()}
	}
	if err := s.disp.SetRateHz(req.Hz); err != nil {
		return nil, &ConfigError{Detail: err.Error()}
	}
	return okResponse{OK: true}, nil
}

func (s *Server) handleInject(payload string) (any, error) {
	var req InjectRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, &ConfigError{Detail: "malformed inject payload: " + err.Error()}
	}
	if err := applyInject(s.state, req); err != nil {
		return nil, err
	}
	return okResponse{OK: true}, nil
}

// applyInject maps one InjectRequest onto the shared inputstate.State,
// the same mutation surface the evdev inputsource.Source uses, so GUI
// front-ends driving injected events and a physical controller are
// indistinguishable to the Dispatcher.
func applyInject(state *inputstate.State, req InjectRequest) error {
	switch req.Kind {
	case "button":
		state.SetButton(req.ButtonID, req.Pressed)
	case "axis":
		axis, err := parseAxis(req.Axis)
		if err != nil {
			return err
		}
		state.SetAxis(axis, req.Value)
	case "trigger":
		side, err := parseTriggerSide(req.Side)
		if err != nil {
			return err
		}
		state.SetTrigger(side, req.Trigger)
	case "hat":
		state.SetHat(req.Up, req.Down, req.Left, req.Right)
	case "key":
		if req.Pressed {
			state.PressKey(req.ScanCode)
		} else {
			state.ReleaseKey(req.ScanCode)
		}
	case "modifier":
		state.SetModifier(req.Mask, req.On)
	case "mouseMove":
		state.MoveMouse(req.DX, req.DY)
	case "mouseButton":
		button, err := parseMouseButton(req.MouseButton)
		if err != nil {
			return err
		}
		state.SetMouseButton(button, req.Pressed)
	case "wheel":
		state.Wheel(req.V, req.H)
	default:
		return &ConfigError{Detail: fmt.Sprintf("unknown inject kind %q", req.Kind)}
	}
	return nil
}

func parseAxis(s string) (inputstate.Axis, error) {
	switch s {
	case "x":
		return inputstate.AxisX, nil
	case "y":
		return inputstate.AxisY, nil
	case "rx":
		return inputstate.AxisRx, nil
	case "ry":
		return inputstate.AxisRy, nil
	default:
		return 0, &ConfigError{Detail: fmt.Sprintf("unknown axis %q", s)}
	}
}

func parseTriggerSide(s string) (inputstate.TriggerSide, error) {
	switch s {
	case "left":
		return inputstate.TriggerLeft, nil
	case "right":
		return inputstate.TriggerRight, nil
	default:
		return 0, &ConfigError{Detail: fmt.Sprintf("unknown trigger side %q", s)}
	}
}

func parseMouseButton(s string) (inputstate.MouseButton, error) {
	switch s {
	case "left":
		return inputstate.MouseLeft, nil
	case "right":
		return inputstate.MouseRight, nil
	case "middle":
		return inputstate.MouseMiddle, nil
	default:
		return 0, &ConfigError{Detail: fmt.Sprintf("unknown mouse button %q", s)}
	}
}
