package parser

import "fmt"

// Pos is a 1-based position in the source text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is a parse error at a source position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// Literal is a number or a (possibly nested) list of literals. Strings are
// lists of character codes ending in 0.
type Literal struct {
	Value    int
	Elements []Literal
	IsArray  bool
}

// First returns the first scalar leaf, descending into lists.
func (l Literal) First() int {
	for l.IsArray {
		if len(l.Elements) == 0 {
			return 0
		}
		l = l.Elements[0]
	}
	return l.Value
}

func (l Literal) String() string {
	if !l.IsArray {
		return fmt.Sprint(l.Value)
	}
	s := "["
	for i, e := range l.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}

type Variable struct {
	Name      string
	Dimension []int // a scalar is [1]
	Size      int   // product of Dimension
	Init      *Literal
	Address   int
	Pos       Pos
}

type Label struct {
	Name    string
	Address int
	Pos     Pos
}

type OperandKind int

const (
	OperandLiteral OperandKind = iota + 1
	OperandReference
)

// Operand is the value carried in the word after an instruction.
type Operand struct {
	Kind    OperandKind
	Literal Literal // OperandLiteral
	Ref     string  // OperandReference: a label or variable name
}

// Instruction moves a value from Source (or Operand) to Destination. Size is
// 2 exactly when Operand is set.
type Instruction struct {
	Source      string
	Operand     *Operand
	Destination string
	Carry       bool
	Zero        bool
	Address     int
	Size        int
	Pos         Pos
}

// Program is the parsed form of a source file. Each collection is in source
// order and all addresses are filled in.
type Program struct {
	Variables    []Variable
	Labels       []Label
	Instructions []Instruction
}

// InstructionWords returns the number of words taken by instructions, which is
// also the address of the first variable.
func (p *Program) InstructionWords() int {
	n := 0
	for _, ins := range p.Instructions {
		n += ins.Size
	}
	return n
}

// Words returns the size of the compiled image.
func (p *Program) Words() int {
	n := p.InstructionWords()
	for _, v := range p.Variables {
		n += v.Size
	}
	return n
}
