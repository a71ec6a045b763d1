package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/Alia5/hidperiphd/internal/configpaths"
)

// SetPasswordCommand lets an operator pick the control socket's password
// interactively instead of relying on the auto-generated key file,
// mirroring the masked-input prompt shape of the teacher's terminal
// helpers (internal/util) but grounded on golang.org/x/term, the library
// the rest of this example corpus reaches for when a prompt must not
// echo its input to the terminal.
type SetPasswordCommand struct {
	Stdin bool `help:"Read the new password from stdin instead of prompting interactively"`
}

// Run prompts twice (to catch typos) and persists the confirmed password
// to the control key file, the same file controlPassword reads on server
// startup.
func (c *SetPasswordCommand) Run() error {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return err
	}
	keyPath := filepath.Join(dir, controlKeyFileName)

	pwd, err := c.readPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		return &ConfigError{Detail: "password cannot be empty"}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, []byte(pwd), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "control socket password written to %s\n", keyPath)
	return nil
}

func (c *SetPasswordCommand) readPassword() (string, error) {
	if c.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "new control password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "confirm: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
