package cpu

import (
	"errors"
	"fmt"
)

// MaxOpcode is the largest opcode that fits the 7-bit source/destination fields.
const MaxOpcode = 127

var (
	ErrNoOperandSource        = errors.New("no operand source")
	ErrMultipleOperandSources = errors.New("more than one operand source")
	ErrOpcodeCollision        = errors.New("opcode collision")
	ErrOpcodeRange            = errors.New("opcode out of range")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrInvalidEntry           = errors.New("invalid dictionary entry")
)

// Role says whether a dictionary entry produces or consumes a value.
type Role int

const (
	Source Role = iota
	Destination
)

func (r Role) String() string {
	switch r {
	case Source:
		return "source"
	case Destination:
		return "destination"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// SourceFunc produces the value moved by an instruction. Returning ok=false
// means the value is not available yet: the step becomes a no-op and the same
// instruction is retried on the next step.
type SourceFunc func(c *CPU) (n uint16, ok bool)

// DestinationFunc consumes the value. length is the instruction length in
// words (2 when the operand word was used).
type DestinationFunc func(c *CPU, n uint16, length uint16)

// Entry is one named micro-operation of the instruction dictionary.
type Entry struct {
	Role      Role
	Name      string
	Opcode    *int // nil: assigned automatically
	IsOperand bool // the source reading the word after the instruction

	Read  SourceFunc
	Write DestinationFunc
}

// Code returns a pointer to n, for Entry.Opcode literals.
func Code(n int) *int {
	return &n
}

// Registry holds the opcode tables derived from a dictionary. It is never
// modified after NewRegistry returns, so compiler and simulator can share it.
type Registry struct {
	sources      []string
	destinations []string

	sourceOpcodes      map[string]uint8
	destinationOpcodes map[string]uint8

	sourceOps      [MaxOpcode + 1]SourceFunc
	destinationOps [MaxOpcode + 1]DestinationFunc

	operandOpcode uint8
	operandName   string
}

// NewRegistry validates dict and assigns opcodes. Explicit opcodes are kept;
// every other entry gets, in dictionary order, the smallest opcode not yet
// used within its role. The caller's slice is not modified.
func NewRegistry(dict []Entry) (*Registry, error) {
	entries := make([]Entry, len(dict))
	copy(entries, dict)

	r := &Registry{
		sourceOpcodes:      make(map[string]uint8),
		destinationOpcodes: make(map[string]uint8),
	}

	operands := 0
	used := map[Role]map[int]bool{Source: {}, Destination: {}}
	names := map[Role]map[string]bool{Source: {}, Destination: {}}

	for i, e := range entries {
		if e.Role != Source && e.Role != Destination {
			return nil, fmt.Errorf("entry %d (%q): unknown role %d: %w", i, e.Name, int(e.Role), ErrInvalidEntry)
		}
		if names[e.Role][e.Name] {
			return nil, fmt.Errorf("%s %q: %w", e.Role, e.Name, ErrDuplicateName)
		}
		names[e.Role][e.Name] = true

		if e.IsOperand {
			if e.Role != Source {
				return nil, fmt.Errorf("destination %q flagged as operand: %w", e.Name, ErrInvalidEntry)
			}
			operands++
		}
		if e.Role == Source && e.Read == nil {
			return nil, fmt.Errorf("source %q has no behavior: %w", e.Name, ErrInvalidEntry)
		}
		if e.Role == Destination && e.Write == nil {
			return nil, fmt.Errorf("destination %q has no behavior: %w", e.Name, ErrInvalidEntry)
		}

		if e.Opcode == nil {
			continue
		}
		code := *e.Opcode
		if code < 0 || code > MaxOpcode {
			return nil, fmt.Errorf("%s %q opcode %d: %w", e.Role, e.Name, code, ErrOpcodeRange)
		}
		if used[e.Role][code] {
			return nil, fmt.Errorf("%s %q opcode %d: %w", e.Role, e.Name, code, ErrOpcodeCollision)
		}
		used[e.Role][code] = true
	}

	switch {
	case operands == 0:
		return nil, ErrNoOperandSource
	case operands > 1:
		return nil, fmt.Errorf("%d operand sources: %w", operands, ErrMultipleOperandSources)
	}

	for i := range entries {
		e := &entries[i]
		code := 0
		if e.Opcode != nil {
			code = *e.Opcode
		} else {
			for used[e.Role][code] {
				code++
			}
			if code > MaxOpcode {
				return nil, fmt.Errorf("%s %q: no free opcode: %w", e.Role, e.Name, ErrOpcodeRange)
			}
			used[e.Role][code] = true
		}

		switch e.Role {
		case Source:
			r.sourceOpcodes[e.Name] = uint8(code)
			r.sourceOps[code] = e.Read
			if e.IsOperand {
				r.operandOpcode = uint8(code)
				r.operandName = e.Name
			} else {
				r.sources = append(r.sources, e.Name)
			}
		case Destination:
			r.destinationOpcodes[e.Name] = uint8(code)
			r.destinationOps[code] = e.Write
			r.destinations = append(r.destinations, e.Name)
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for dictionaries known to be valid.
func MustRegistry(dict []Entry) *Registry {
	r, err := NewRegistry(dict)
	if err != nil {
		panic(err)
	}
	return r
}

// Sources lists the source names usable in program text, in dictionary
// order. The operand source is not included.
func (r *Registry) Sources() []string {
	return append([]string(nil), r.sources...)
}

func (r *Registry) Destinations() []string {
	return append([]string(nil), r.destinations...)
}

func (r *Registry) SourceOpcode(name string) (uint8, bool) {
	code, ok := r.sourceOpcodes[name]
	return code, ok
}

func (r *Registry) DestinationOpcode(name string) (uint8, bool) {
	code, ok := r.destinationOpcodes[name]
	return code, ok
}

// IsSource reports whether name can appear in source position. The operand
// source is reserved and cannot.
func (r *Registry) IsSource(name string) bool {
	_, ok := r.sourceOpcodes[name]
	return ok && name != r.operandName
}

func (r *Registry) IsDestination(name string) bool {
	_, ok := r.destinationOpcodes[name]
	return ok
}

func (r *Registry) OperandOpcode() uint8 { return r.operandOpcode }

func (r *Registry) OperandName() string { return r.operandName }

// SourceName returns the name registered for a source opcode.
func (r *Registry) SourceName(code uint8) (string, bool) {
	for name, c := range r.sourceOpcodes {
		if c == code {
			return name, true
		}
	}
	return "", false
}

func (r *Registry) DestinationName(code uint8) (string, bool) {
	for name, c := range r.destinationOpcodes {
		if c == code {
			return name, true
		}
	}
	return "", false
}

func (r *Registry) source(code uint8) SourceFunc {
	if int(code) > MaxOpcode {
		return nil
	}
	return r.sourceOps[code]
}

func (r *Registry) destination(code uint8) DestinationFunc {
	if int(code) > MaxOpcode {
		return nil
	}
	return r.destinationOps[code]
}
