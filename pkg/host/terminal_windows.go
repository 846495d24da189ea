//go:build windows

package host

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

const ctrlC = 3

// Terminal reads raw stdin into an Input queue. Ctrl-C is not queued: it
// calls the interrupt function instead.
type Terminal struct {
	in        *Input
	interrupt func()
	stopCh    chan struct{}
	stopped   sync.Once
	fd        int
	oldState  *term.State
}

func NewTerminal(in *Input, interrupt func()) *Terminal {
	return &Terminal{
		in:        in,
		interrupt: interrupt,
		stopCh:    make(chan struct{}),
	}
}

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Start puts stdin in raw mode and starts the reader. Reads block, so the
// reader goroutine only notices Stop after the next key press.
func (t *Terminal) Start() error {
	t.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	t.oldState = oldState

	go t.read()
	return nil
}

func (t *Terminal) read() {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		select {
		case <-t.stopCh:
			return
		default:
		}
		for _, b := range buf[:n] {
			if b == ctrlC {
				if t.interrupt != nil {
					t.interrupt()
				}
				continue
			}
			t.in.Push(uint16(b))
		}
		if err != nil {
			return
		}
	}
}

// Stop restores stdin. It is safe to call more than once.
func (t *Terminal) Stop() {
	t.stopped.Do(func() {
		close(t.stopCh)
	})
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}
