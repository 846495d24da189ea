// Package host connects a CPU to the machine it runs on: keyboard input,
// console output and the stepping loop.
package host

import (
	"io"
	"sync"
)

// Input is a FIFO of words waiting to be read by the IN source. It is safe
// for concurrent use: a reader goroutine pushes while the runner pops.
type Input struct {
	mu  sync.Mutex
	buf []uint16
}

func (in *Input) Push(words ...uint16) {
	in.mu.Lock()
	in.buf = append(in.buf, words...)
	in.mu.Unlock()
}

// PushBytes queues every byte of b.
func (in *Input) PushBytes(b []byte) {
	in.mu.Lock()
	for _, c := range b {
		in.buf = append(in.buf, uint16(c))
	}
	in.mu.Unlock()
}

func (in *Input) Available() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.buf) > 0
}

// Read pops the oldest word, or returns 0 when the queue is empty.
func (in *Input) Read() uint16 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.buf) == 0 {
		return 0
	}
	n := in.buf[0]
	in.buf = in.buf[1:]
	return n
}

func (in *Input) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.buf)
}

func (in *Input) Clear() {
	in.mu.Lock()
	in.buf = nil
	in.mu.Unlock()
}

// ReadFrom queues everything read from r until EOF. It makes piped stdin
// usable as program input.
func (in *Input) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 512)
	var total int64
	for {
		n, err := r.Read(buf)
		in.PushBytes(buf[:n])
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
