//go:build !windows

package host

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

const ctrlC = 3

// Terminal reads raw stdin into an Input queue. Ctrl-C is not queued: it
// calls the interrupt function instead.
type Terminal struct {
	in          *Input
	interrupt   func()
	stopCh      chan struct{}
	done        chan struct{}
	stopped     sync.Once
	fd          int
	nonblockSet bool
	oldState    *term.State
}

func NewTerminal(in *Input, interrupt func()) *Terminal {
	return &Terminal{
		in:        in,
		interrupt: interrupt,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Start puts stdin in raw non-blocking mode and starts the reader. Call Stop
// to restore it.
func (t *Terminal) Start() error {
	t.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		close(t.done)
		return fmt.Errorf("set raw mode: %w", err)
	}
	t.oldState = oldState

	if err := syscall.SetNonblock(t.fd, true); err != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
		close(t.done)
		return fmt.Errorf("set nonblocking stdin: %w", err)
	}
	t.nonblockSet = true

	go t.read()
	return nil
}

func (t *Terminal) read() {
	defer close(t.done)
	buf := make([]byte, 64)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := syscall.Read(t.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			if b == ctrlC {
				if t.interrupt != nil {
					t.interrupt()
				}
				continue
			}
			t.in.Push(uint16(b))
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop ends the reader and restores stdin. It is safe to call more than once.
func (t *Terminal) Stop() {
	t.stopped.Do(func() {
		close(t.stopCh)
	})
	<-t.done
	if t.nonblockSet {
		_ = syscall.SetNonblock(t.fd, false)
		t.nonblockSet = false
	}
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}
