// Package asm compiles parsed programs into memory images and back.
package asm

import (
	"fmt"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/parser"
)

// MaxWords is the largest image that fits in memory.
const MaxWords = cpu.MemorySize

// Opcodes is the part of the instruction set the compiler needs.
type Opcodes interface {
	SourceOpcode(name string) (uint8, bool)
	DestinationOpcode(name string) (uint8, bool)
	OperandOpcode() uint8
}

// Error is a compile error. Pos is the zero value for errors that concern
// the whole program.
type Error struct {
	Pos parser.Pos
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

type Assembler struct {
	isa     Opcodes
	symbols map[string]int
}

func NewAssembler(isa Opcodes) *Assembler {
	return &Assembler{
		isa:     isa,
		symbols: make(map[string]int),
	}
}

// Compile turns p into an image: instructions first, then every variable
// flattened in row-major order.
func Compile(p *parser.Program, isa Opcodes) ([]uint16, error) {
	return NewAssembler(isa).Compile(p)
}

// Assemble parses and compiles src with reg. It also returns a map from
// instruction address to source line.
func Assemble(src string, reg *cpu.Registry) ([]uint16, map[uint16]int, error) {
	p, err := parser.Parse(src, reg)
	if err != nil {
		return nil, nil, err
	}
	words, err := Compile(p, reg)
	if err != nil {
		return nil, nil, err
	}
	return words, SourceMap(p), nil
}

func (a *Assembler) Compile(p *parser.Program) ([]uint16, error) {
	total := p.Words()
	if total > MaxWords {
		return nil, &Error{Msg: fmt.Sprintf("program does not fit in memory: %d words over the %d word limit", total-MaxWords, MaxWords)}
	}

	for _, v := range p.Variables {
		a.symbols[v.Name] = v.Address
	}
	// Labels win over variables of the same name.
	for _, l := range p.Labels {
		a.symbols[l.Name] = l.Address
	}

	image := make([]uint16, 0, total)
	for _, ins := range p.Instructions {
		words, err := a.encode(ins)
		if err != nil {
			return nil, err
		}
		image = append(image, words...)
	}

	for _, v := range p.Variables {
		words, err := flatten(v)
		if err != nil {
			return nil, err
		}
		image = append(image, words...)
	}
	return image, nil
}

func (a *Assembler) encode(ins parser.Instruction) ([]uint16, error) {
	dst, ok := a.isa.DestinationOpcode(ins.Destination)
	if !ok {
		return nil, &Error{Pos: ins.Pos, Msg: fmt.Sprintf("unknown destination %q", ins.Destination)}
	}

	if ins.Operand == nil {
		src, ok := a.isa.SourceOpcode(ins.Source)
		if !ok {
			return nil, &Error{Pos: ins.Pos, Msg: fmt.Sprintf("unknown source %q", ins.Source)}
		}
		return []uint16{cpu.EncodeInstruction(src, dst, ins.Carry, ins.Zero)}, nil
	}

	word := cpu.EncodeInstruction(a.isa.OperandOpcode(), dst, ins.Carry, ins.Zero)
	switch ins.Operand.Kind {
	case parser.OperandLiteral:
		return []uint16{word, uint16(ins.Operand.Literal.First())}, nil
	case parser.OperandReference:
		addr, ok := a.symbols[ins.Operand.Ref]
		if !ok {
			return nil, &Error{Pos: ins.Pos, Msg: fmt.Sprintf("undefined name %q", ins.Operand.Ref)}
		}
		// A label after the last word of a full image has no address.
		if addr >= MaxWords {
			return nil, &Error{Pos: ins.Pos, Msg: fmt.Sprintf("address %d of %q is outside memory", addr, ins.Operand.Ref)}
		}
		return []uint16{word, uint16(addr)}, nil
	default:
		return nil, &Error{Pos: ins.Pos, Msg: fmt.Sprintf("unknown operand kind %d", ins.Operand.Kind)}
	}
}

// flatten expands the initializer of v to exactly v.Size words. Scalars
// broadcast over deeper dimensions and missing positions are 0.
func flatten(v parser.Variable) ([]uint16, error) {
	words := make([]uint16, v.Size)
	if v.Init == nil {
		return words, nil
	}
	if err := checkShape(*v.Init, v.Dimension); err != nil {
		return nil, &Error{Pos: v.Pos, Msg: fmt.Sprintf("%s for %q", err, v.Name)}
	}

	pos := make([]int, len(v.Dimension))
	for i := range words {
		words[i] = uint16(valueAt(pos, *v.Init))
		// Row-major increment, last dimension fastest.
		for d := len(pos) - 1; d >= 0; d-- {
			pos[d]++
			if pos[d] < v.Dimension[d] {
				break
			}
			pos[d] = 0
		}
	}
	return words, nil
}

type shapeError string

func (e shapeError) Error() string { return string(e) }

// checkShape reports lists longer than their dimension and lists nested
// deeper than the declared dimensions.
func checkShape(lit parser.Literal, dims []int) error {
	if !lit.IsArray {
		return nil
	}
	if len(dims) == 0 {
		return shapeError("value too deep")
	}
	if len(lit.Elements) > dims[0] {
		return shapeError("value too long")
	}
	for _, e := range lit.Elements {
		if err := checkShape(e, dims[1:]); err != nil {
			return err
		}
	}
	return nil
}

func valueAt(pos []int, lit parser.Literal) int {
	for lit.IsArray {
		if len(pos) == 0 || pos[0] >= len(lit.Elements) {
			return 0
		}
		lit = lit.Elements[pos[0]]
		pos = pos[1:]
	}
	return lit.Value
}

// SourceMap maps each instruction address to its source line.
func SourceMap(p *parser.Program) map[uint16]int {
	m := make(map[uint16]int, len(p.Instructions))
	for _, ins := range p.Instructions {
		m[uint16(ins.Address)] = ins.Pos.Line
	}
	return m
}
