package control

import "fmt"

// PermissionDenied is surfaced when a control-socket client fails the
// auth handshake, per spec.md §7's PermissionDenied category.
type PermissionDenied struct {
	Reason string
}

func (e *PermissionDenied) Error() string { return fmt.Sprintf("control: permission denied: %s", e.Reason) }

// ConfigError wraps a malformed request payload (bad mode name,
// out-of-range rate, malformed event), per spec.md §7's ConfigError
// category — surfaced immediately, never retried.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("control: config error: %s", e.Detail) }

// errorResponse is the wire shape for any error reply.
type errorResponse struct {
	Error string `json:"error"`
}
