//go:build !windows
// +build !windows

package flags

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// askSecret reads a credential without echoing it. When stdin carries
// the request body the controlling terminal is opened instead.
func askSecret(prompt string) (string, error) {
	fd := syscall.Stdin
	if !terminal.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.Wrapf(err, "no terminal to read %s from", prompt)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	secret, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", prompt)
	}
	return string(secret), nil
}
