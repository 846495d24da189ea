package asm

import (
	"fmt"
	"strings"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
)

// Line is one decoded instruction (or undecodable word) of an image.
type Line struct {
	Addr  uint16
	Words []uint16
	Text  string
}

func (l Line) String() string {
	hex := make([]string, len(l.Words))
	for i, w := range l.Words {
		hex[i] = fmt.Sprintf("%04X", w)
	}
	return fmt.Sprintf("%04X  %-9s  %s", l.Addr, strings.Join(hex, " "), l.Text)
}

// Disassemble decodes words linearly from address 0. Words whose opcodes
// are unknown to reg are shown as .word directives.
func Disassemble(words []uint16, reg *cpu.Registry) []Line {
	var lines []Line
	for addr := 0; addr < len(words); {
		l := DisassembleAt(words, addr, reg)
		lines = append(lines, l)
		addr += len(l.Words)
	}
	return lines
}

// DisassembleAt decodes the instruction at addr.
func DisassembleAt(words []uint16, addr int, reg *cpu.Registry) Line {
	w := words[addr]
	l := Line{Addr: uint16(addr), Words: []uint16{w}}
	ins := cpu.Decode(w)

	dst, ok := reg.DestinationName(ins.Destination)
	if !ok {
		l.Text = fmt.Sprintf(".word 0x%04X", w)
		return l
	}

	var src string
	if ins.Source == reg.OperandOpcode() {
		if addr+1 >= len(words) {
			l.Text = fmt.Sprintf(".word 0x%04X", w)
			return l
		}
		op := words[addr+1]
		l.Words = append(l.Words, op)
		src = fmt.Sprintf("0x%04X", op)
	} else if src, ok = reg.SourceName(ins.Source); !ok {
		l.Text = fmt.Sprintf(".word 0x%04X", w)
		return l
	}

	l.Text = src + " => " + dst
	if ins.Carry {
		l.Text += " c"
	}
	if ins.Zero {
		l.Text += " z"
	}
	return l
}
