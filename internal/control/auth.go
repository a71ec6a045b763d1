// Package control implements the local control surface: a small
// loopback socket the GUI/CLI front-ends spec.md §1 treats as external
// collaborators use to start/stop the Dispatcher, change its mode, and
// inject synthetic events. Framing and the auth handshake are grounded
// on the teacher's internal/server/api and internal/server/api/auth
// packages (magic-prefixed HMAC handshake, PBKDF2-derived key,
// ChaCha20-Poly1305-sealed session) — the same "shared-secret gate on a
// loopback listener" shape, narrowed to this package's six operations.
package control

import (
	"bufio"
	"bytes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	handshakeMagic = "hpd1\x00"
	nonceSize      = 32
	authContext    = "hidperiphd-control-v1"

	pbkdf2Iterations = 100000
	pbkdf2Salt       = "hidperiphd-control-key-v1"

	autoGenKeyLength = 16
	base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GenerateKey creates a random 16-character base62 password, written to
// the key file on first run the way the teacher's auth.GenerateKey does.
func GenerateKey() (string, error) {
	raw := make([]byte, autoGenKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	key := make([]byte, autoGenKeyLength)
	for i, b := range raw {
		key[i] = base62Chars[int(b)%62]
	}
	return string(key), nil
}

// deriveKey stretches the configured password to a 32-byte AEAD key.
func deriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("control: password cannot be empty")
	}
	return pbkdf2.Key(sha256.New, password, []byte(pbkdf2Salt), pbkdf2Iterations, 32)
}

// deriveSessionKey mixes the long-lived key with both handshake nonces,
// so a stolen transcript can never be replayed against a fresh session.
func deriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte("hidperiphd-control-session-v1"))
	return h.Sum(nil)
}

// isAuthHandshake peeks for the handshake magic without consuming it.
func isAuthHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(handshakeMagic))
	if err != nil {
		return false, err
	}
	return string(b) == handshakeMagic, nil
}

// serverHandshake consumes the client's magic + nonce + HMAC, verifies
// it against key, and replies with a fresh server nonce. Returns both
// nonces for deriveSessionKey.
func serverHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if _, err := r.Discard(len(handshakeMagic)); err != nil {
		return nil, nil, fmt.Errorf("control: discard handshake magic: %w", err)
	}

	clientNonce = make([]byte, nonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("control: read client nonce: %w", err)
	}

	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientAuth); err != nil {
		return nil, nil, fmt.Errorf("control: read client auth: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	expected := mac.Sum(nil)
	if !hmac.Equal(clientAuth, expected) {
		return nil, nil, &PermissionDenied{Reason: "invalid control password"}
	}

	serverNonce = make([]byte, nonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, nil, fmt.Errorf("control: generate server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte("OK\x00"), serverNonce...)); err != nil {
		return nil, nil, fmt.Errorf("control: write handshake response: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// clientHandshake is the dialing side's half of serverHandshake, used by
// any first-party client talking to the control socket (e.g. a GUI
// front-end reusing this package rather than reimplementing the wire
// format).
func clientHandshake(r *bufio.Reader, w io.Writer, key []byte) (sessionKey []byte, err error) {
	clientNonce := make([]byte, nonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, fmt.Errorf("control: generate client nonce: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	clientAuth := mac.Sum(nil)

	msg := append([]byte(handshakeMagic), clientNonce...)
	msg = append(msg, clientAuth...)
	if _, err := w.Write(msg); err != nil {
		return nil, fmt.Errorf("control: write handshake: %w", err)
	}

	respPrefix := make([]byte, 3)
	if _, err := io.ReadFull(r, respPrefix); err != nil {
		return nil, fmt.Errorf("control: read handshake response: %w", err)
	}
	if string(respPrefix) != "OK\x00" {
		return nil, fmt.Errorf("control: handshake rejected")
	}
	serverNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, fmt.Errorf("control: read server nonce: %w", err)
	}
	return deriveSessionKey(key, serverNonce, clientNonce), nil
}

// secureConn wraps a net.Conn with a ChaCha20-Poly1305 AEAD and a
// 4-byte big-endian length prefix per sealed frame, identical in shape
// to the teacher's auth.Conn.
type secureConn struct {
	net.Conn
	aead    cipher.AEAD
	sendCtr uint64
	recvBuf bytes.Buffer
	mu      sync.Mutex
}

const maxFrameSize = 1 << 20 // 1 MiB; control payloads are tiny JSON objects

func wrapSecure(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &secureConn{Conn: conn, aead: aead}, nil
}

func (c *secureConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], c.sendCtr)
	c.sendCtr++

	ct := c.aead.Seal(nil, nonce, p, nil)
	frame := len(nonce) + len(ct)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(frame))
	if _, err := c.Conn.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := c.Conn.Write(nonce); err != nil {
		return 0, err
	}
	if _, err := c.Conn.Write(ct); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *secureConn) Read(p []byte) (int, error) {
	if c.recvBuf.Len() == 0 {
		var hdr [4]byte
		if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
			return 0, err
		}
		frame := binary.BigEndian.Uint32(hdr[:])
		if frame > maxFrameSize {
			return 0, io.ErrUnexpectedEOF
		}
		buf := make([]byte, frame)
		if _, err := io.ReadFull(c.Conn, buf); err != nil {
			return 0, err
		}
		nonce, ct := buf[:12], buf[12:]
		pt, err := c.aead.Open(nil, nonce, ct, nil)
		if err != nil {
			return 0, err
		}
		c.recvBuf.Write(pt)
	}
	return c.recvBuf.Read(p)
}
