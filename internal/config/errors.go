package config

import "fmt"

// ConfigError wraps a bad CLI/config value (unknown mode, out-of-range
// rate, malformed static address), per spec.md §7's ConfigError
// category — surfaced immediately, never retried.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %s", e.Detail) }
