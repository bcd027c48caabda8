// host_tty.go - raw-mode stdin handling for interactive guest programs
// (spec §4.10, NEW). Adapted from the teacher's terminal_host.go: that
// type drove a line/char-mode MMIO console device from a background
// goroutine; here the guest reads stdin itself via the read(2) syscall
// (syscall_linux.go), so all that's needed is putting the host terminal
// into raw mode for the guest's duration and restoring it on exit.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TTYHost owns the host terminal's raw-mode state across a guest run.
type TTYHost struct {
	fd       int
	oldState *term.State
}

// NewTTYHost prepares a handle for stdin; call Enable before running the
// guest and Restore once it exits or syscalls exit.
func NewTTYHost() *TTYHost {
	return &TTYHost{fd: int(os.Stdin.Fd())}
}

// Enable switches stdin to raw mode if it is a terminal, silently doing
// nothing otherwise (piped input/output needs no translation).
func (h *TTYHost) Enable() {
	if !term.IsTerminal(h.fd) {
		return
	}
	state, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvemu: failed to set raw mode: %v\n", err)
		return
	}
	h.oldState = state
}

// Restore undoes Enable. Safe to call even if Enable never took effect.
func (h *TTYHost) Restore() {
	if h.oldState == nil {
		return
	}
	_ = term.Restore(h.fd, h.oldState)
	h.oldState = nil
}
