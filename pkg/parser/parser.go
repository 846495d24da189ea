// Package parser turns assembly source into a Program.
//
// Grammar:
//
//	program     = (variable | label | instruction)* EOF
//	variable    = "word" IDENT ("[" NUMBER "]")* ("=" value)?
//	label       = IDENT ":"
//	instruction = (SOURCE | literal | IDENT) "=>" DESTINATION ("c" | "z")*
//	literal     = NUMBER | CHAR | STRING
//	value       = literal | "[" value ("," value)* "]"
//
// SOURCE and DESTINATION are names known to the instruction set. Any other
// identifier in source position is a reference to a label or variable,
// resolved later by the compiler.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxWords is the size of the address space.
	MaxWords = 65536

	minValue = -32768
	maxValue = 65535

	// maxSize bounds Variable.Size. Anything this large fails to compile
	// anyway.
	maxSize = 1 << 30
)

// ISA is the part of the instruction set the parser needs.
type ISA interface {
	IsSource(name string) bool
	IsDestination(name string) bool
}

type parser struct {
	items   []item
	pos     int
	isa     ISA
	prog    *Program
	names   map[string]Pos
	address int
}

// Parse parses src. On error it returns a *Error and no program.
func Parse(src string, isa ISA) (*Program, error) {
	p := &parser{
		items: tokenize(src),
		isa:   isa,
		prog:  &Program{},
		names: make(map[string]Pos),
	}
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	return p.prog, nil
}

func (p *parser) errorf(pos Pos, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() item {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) item {
	if p.pos+offset >= len(p.items) {
		return p.items[len(p.items)-1]
	}
	return p.items[p.pos+offset]
}

// advance consumes the current item. Lexer errors surface here.
func (p *parser) advance() (item, error) {
	it := p.peek()
	if p.pos < len(p.items) {
		p.pos++
	}
	if it.typ == itemError {
		return it, &Error{Pos: it.pos, Msg: it.val}
	}
	return it, nil
}

func (p *parser) expect(t itemType) (item, error) {
	it, err := p.advance()
	if err != nil {
		return it, err
	}
	if it.typ != t {
		return it, p.errorf(it.pos, "expected %s, found %s", t, it)
	}
	return it, nil
}

func (p *parser) parseProgram() error {
	for {
		it := p.peek()
		var err error
		switch {
		case it.typ == itemEOF:
			p.layoutVariables()
			return nil
		case it.typ == itemIdentifier && p.peekAt(1).typ == itemColon:
			err = p.parseLabel()
		case it.typ == itemIdentifier && it.val == "word" && p.peekAt(1).typ == itemIdentifier:
			err = p.parseVariable()
		default:
			err = p.parseInstruction()
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) declare(name string, pos Pos) error {
	if first, ok := p.names[name]; ok {
		return p.errorf(pos, "duplicate name %q, first declared at %s", name, first)
	}
	p.names[name] = pos
	return nil
}

func (p *parser) parseLabel() error {
	name, _ := p.advance()
	p.pos++ // ":"
	if err := p.declare(name.val, name.pos); err != nil {
		return err
	}
	p.prog.Labels = append(p.prog.Labels, Label{
		Name:    name.val,
		Address: p.address,
		Pos:     name.pos,
	})
	return nil
}

func (p *parser) parseVariable() error {
	p.pos++ // "word"
	name, _ := p.advance()
	if err := p.declare(name.val, name.pos); err != nil {
		return err
	}

	v := Variable{Name: name.val, Size: 1, Pos: name.pos}
	for p.peek().typ == itemLeftBracket {
		p.pos++
		n, err := p.expect(itemNumber)
		if err != nil {
			return err
		}
		dim, err := parseDimension(n)
		if err != nil {
			return err
		}
		if _, err := p.expect(itemRightBracket); err != nil {
			return err
		}
		v.Dimension = append(v.Dimension, dim)
		// Oversized variables are left for the compiler to report; the
		// size saturates instead of overflowing.
		if v.Size > maxSize/dim {
			v.Size = maxSize
		} else {
			v.Size *= dim
		}
	}
	if len(v.Dimension) == 0 {
		v.Dimension = []int{1}
	}

	if p.peek().typ == itemEquals {
		p.pos++
		init, err := p.parseValue()
		if err != nil {
			return err
		}
		v.Init = &init
	}

	p.prog.Variables = append(p.prog.Variables, v)
	return nil
}

func (p *parser) parseInstruction() error {
	first, err := p.advance()
	if err != nil {
		return err
	}

	ins := Instruction{Address: p.address, Size: 1, Pos: first.pos}
	switch first.typ {
	case itemIdentifier:
		if p.isa.IsSource(first.val) {
			ins.Source = first.val
		} else {
			ins.Operand = &Operand{Kind: OperandReference, Ref: first.val}
		}
	case itemNumber, itemChar, itemString:
		p.pos--
		lit, err := p.parseValue()
		if err != nil {
			return err
		}
		ins.Operand = &Operand{Kind: OperandLiteral, Literal: lit}
	default:
		return p.errorf(first.pos, "unexpected %s", first)
	}
	if ins.Operand != nil {
		ins.Size = 2
	}

	if _, err := p.expect(itemArrow); err != nil {
		return err
	}
	dest, err := p.expect(itemIdentifier)
	if err != nil {
		return err
	}
	if !p.isa.IsDestination(dest.val) {
		return p.errorf(dest.pos, "unknown destination %q", dest.val)
	}
	ins.Destination = dest.val

	// A trailing c or z is a flag unless it starts the next label or
	// instruction.
	for range 2 {
		flag := p.peek()
		if flag.typ != itemIdentifier || (flag.val != "c" && flag.val != "z") {
			break
		}
		if t := p.peekAt(1).typ; t == itemColon || t == itemArrow {
			break
		}
		p.pos++
		if flag.val == "c" {
			ins.Carry = true
		} else {
			ins.Zero = true
		}
	}

	p.prog.Instructions = append(p.prog.Instructions, ins)
	p.address += ins.Size
	return nil
}

// parseValue parses a number, character, string or bracketed list.
func (p *parser) parseValue() (Literal, error) {
	it, err := p.advance()
	if err != nil {
		return Literal{}, err
	}

	switch it.typ {
	case itemNumber:
		n, err := parseNumber(it)
		if err != nil {
			return Literal{}, err
		}
		return Literal{Value: n}, nil

	case itemChar:
		runes := unescape(it.val[1 : len(it.val)-1])
		if runes[0] > maxValue {
			return Literal{}, p.errorf(it.pos, "character %q does not fit in a word", runes[0])
		}
		return Literal{Value: int(runes[0])}, nil

	case itemString:
		lit := Literal{IsArray: true}
		for _, r := range unescape(it.val[1 : len(it.val)-1]) {
			if r > maxValue {
				return Literal{}, p.errorf(it.pos, "character %q does not fit in a word", r)
			}
			lit.Elements = append(lit.Elements, Literal{Value: int(r)})
		}
		lit.Elements = append(lit.Elements, Literal{Value: 0})
		return lit, nil

	case itemLeftBracket:
		lit := Literal{IsArray: true}
		for {
			e, err := p.parseValue()
			if err != nil {
				return Literal{}, err
			}
			lit.Elements = append(lit.Elements, e)

			sep, err := p.advance()
			if err != nil {
				return Literal{}, err
			}
			switch sep.typ {
			case itemComma:
				continue
			case itemRightBracket:
				return lit, nil
			default:
				return Literal{}, p.errorf(sep.pos, `expected "," or "]", found %s`, sep)
			}
		}

	default:
		return Literal{}, p.errorf(it.pos, "expected a value, found %s", it)
	}
}

func (p *parser) layoutVariables() {
	addr := p.address
	for i := range p.prog.Variables {
		p.prog.Variables[i].Address = addr
		addr += p.prog.Variables[i].Size
	}
}

// parseNumber converts a number item, checking it fits in a word either as
// a signed or an unsigned value.
func parseNumber(it item) (int, error) {
	s := it.val
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	base := 10
	if strings.HasPrefix(s, "0x") {
		base = 16
		s = s[2:]
	}
	u, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("number %s out of range", it.val)}
		}
		return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("invalid number %q", it.val)}
	}

	n := int(u)
	if neg {
		n = -n
	}
	if n < minValue || n > maxValue {
		return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("number %s out of range", it.val)}
	}
	return n, nil
}

// parseDimension converts an array dimension. Dimensions are sizes, not
// word values, so only positivity is checked here.
func parseDimension(it item) (int, error) {
	s := it.val
	base := 10
	if strings.HasPrefix(s, "0x") {
		base = 16
		s = s[2:]
	}
	if strings.HasPrefix(s, "-") {
		return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("dimension must be positive, got %s", it.val)}
	}
	u, err := strconv.ParseUint(s, base, 31)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("dimension %s out of range", it.val)}
		}
		return 0, &Error{Pos: it.pos, Msg: fmt.Sprintf("invalid number %q", it.val)}
	}
	if u == 0 {
		return 0, &Error{Pos: it.pos, Msg: "dimension must be positive, got 0"}
	}
	return int(u), nil
}
