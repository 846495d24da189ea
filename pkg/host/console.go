package host

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// Translate renders one output word as terminal text. DEL erases the
// previous character and CR or LF end the line; raw terminals need the
// carriage return spelled out.
func Translate(n uint16, raw bool) string {
	switch n {
	case 0x7F:
		return "\b \b"
	case '\r', '\n':
		if raw {
			return "\r\n"
		}
		return "\n"
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return string(r)
}

// Console writes CPU output to w. Write errors are kept and reported by Err
// since the output hook cannot return them.
type Console struct {
	w   io.Writer
	raw bool
	err error
}

func NewConsole(w io.Writer, raw bool) *Console {
	return &Console{w: w, raw: raw}
}

// Output is meant for cpu.Hooks.Output.
func (c *Console) Output(n uint16) {
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, Translate(n, c.raw))
}

// Println writes a host message on its own line.
func (c *Console) Println(s string) {
	if c.err != nil {
		return
	}
	nl := "\n"
	if c.raw {
		nl = "\r\n"
	}
	_, c.err = io.WriteString(c.w, nl+s+nl)
}

func (c *Console) Err() error {
	return c.err
}

type crlfWriter struct{ w io.Writer }

// CRLF returns a writer that turns every LF into CR LF, for text written
// while the terminal is in raw mode.
func CRLF(w io.Writer) io.Writer {
	return crlfWriter{w}
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
