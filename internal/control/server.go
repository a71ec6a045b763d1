package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/Alia5/hidperiphd/internal/dispatcher"
	"github.com/Alia5/hidperiphd/internal/inputstate"
)

// Config configures the control socket's bring-up, mirroring the
// control-surface-visible options spec.md §6 lists for the control
// binary's auth posture.
type Config struct {
	// Addr is a "host:port" loopback address (e.g. "127.0.0.1:3824").
	Addr string
	// Password gates non-localhost clients always, and localhost
	// clients when RequireLocalHostAuth is set.
	Password string
	// RequireLocalHostAuth requires the handshake even for clients
	// connecting from 127.0.0.1/::1.
	RequireLocalHostAuth bool
}

// Server accepts control-socket connections and dispatches six narrow
// operations (start, stop, set mode, set rate, inject synthetic event,
// status) against a Dispatcher and the shared InputState it reads from.
type Server struct {
	cfg    Config
	disp   *dispatcher.Dispatcher
	state  *inputstate.State
	logger *slog.Logger

	ln net.Listener
}

// New builds a control Server over an already-constructed Dispatcher
// and InputState. logger may be nil.
func New(disp *dispatcher.Dispatcher, state *inputstate.State, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, disp: disp, state: state, logger: logger}
}

// Addr returns the address actually bound once Start has run.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Addr
}

// Start listens on the configured loopback address and serves
// connections until Close is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("control: listen: %w", err)
	}
	s.ln = ln
	s.logger.Info("control socket listening", "addr", ln.Addr().String())
	go s.serve()
	return nil
}

// Close stops accepting new connections.
func (s *Server) Close() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("control accept", "error", err)
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) isLocalhost(addr net.Addr) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return false
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func (s *Server) requiresAuth(addr net.Addr) bool {
	if s.isLocalhost(addr) {
		return s.cfg.RequireLocalHostAuth
	}
	return true
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connLogger := s.logger.With("remote", conn.RemoteAddr().String())
	r := bufio.NewReader(conn)
	var w interface{ Write([]byte) (int, error) } = conn

	isAuth, err := isAuthHandshake(r)
	if err != nil {
		connLogger.Debug("control handshake peek failed", "error", err)
	}

	if !isAuth && s.requiresAuth(conn.RemoteAddr()) {
		s.writeError(conn, &PermissionDenied{Reason: "authentication required"})
		return
	}

	if isAuth {
		key, err := deriveKey(s.cfg.Password)
		if err != nil {
			connLogger.Error("control derive key", "error", err)
			return
		}
		clientNonce, serverNonce, err := serverHandshake(r, conn, key)
		if err != nil {
			connLogger.Error("control handshake failed", "error", err)
			var denied *PermissionDenied
			if errors.As(err, &denied) {
				s.writeError(conn, denied)
			}
			return
		}
		sessionKey := deriveSessionKey(key, serverNonce, clientNonce)
		secConn, err := wrapSecure(conn, sessionKey)
		if err != nil {
			connLogger.Error("control wrap secure conn", "error", err)
			return
		}
		conn = secConn
		r = bufio.NewReader(conn)
		w = conn
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		connLogger.Debug("control read request", "error", err)
		return
	}
	reqData = strings.TrimSuffix(reqData, "\x00")
	if reqData == "" {
		s.writeError(w, &ConfigError{Detail: "empty request"})
		return
	}

	var path, payload string
	if idx := strings.IndexAny(reqData, " \t"); idx >= 0 {
		path, payload = reqData[:idx], reqData[idx+1:]
	} else {
		path = reqData
	}
	path = strings.ToLower(strings.TrimSpace(path))

	result, err := s.dispatch(path, payload)
	if err != nil {
		connLogger.Error("control command failed", "path", path, "error", err)
		s.writeError(w, err)
		return
	}
	s.writeResult(w, result)
}

func (s *Server) dispatch(path, payload string) (any, error) {
	switch path {
	case "status":
		return s.handleStatus()
	case "start":
		return s.handleStart(payload)
	case "stop":
		return s.handleStop()
	case "setmode":
		return s.handleSetMode(payload)
	case "setrate":
		return s.handleSetRate(payload)
	case "inject":
		return s.handleInject(payload)
	default:
		return nil, &ConfigError{Detail: fmt.Sprintf("unknown command %q", path)}
	}
}

func (s *Server) writeError(w interface{ Write([]byte) (int, error) }, err error) {
	data, _ := json.Marshal(errorResponse{Error: err.Error()})
	_, _ = w.Write(append(data, '\n'))
}

func (s *Server) writeResult(w interface{ Write([]byte) (int, error) }, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	_, _ = w.Write(append(data, '\n'))
}
