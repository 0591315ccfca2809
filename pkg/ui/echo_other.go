//go:build !linux

package ui

import "golang.org/x/term"

// disableInputEcho puts stdin in raw mode, which also stops echo.
func disableInputEcho(fd int) (func(), error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
