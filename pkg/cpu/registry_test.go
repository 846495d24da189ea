package cpu

import (
	"errors"
	"testing"
)

func nopRead(c *CPU) (uint16, bool) { return 0, true }

func nopWrite(c *CPU, n, length uint16) {}

func src(name string, op *int, operand bool) Entry {
	return Entry{Role: Source, Name: name, Opcode: op, IsOperand: operand, Read: nopRead}
}

func dst(name string, op *int) Entry {
	return Entry{Role: Destination, Name: name, Opcode: op, Write: nopWrite}
}

func TestRegistryAssignsOpcodes(t *testing.T) {
	dict := []Entry{
		src("source1", Code(10), false),
		src("source2", nil, false),
		src("operand", nil, true),
		dst("destination1", Code(0)),
		dst("destination2", nil),
	}
	reg, err := NewRegistry(dict)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		name string
		get  func(string) (uint8, bool)
		want uint8
	}{
		{"source1", reg.SourceOpcode, 10},
		{"source2", reg.SourceOpcode, 0},
		{"operand", reg.SourceOpcode, 1},
		{"destination1", reg.DestinationOpcode, 0},
		{"destination2", reg.DestinationOpcode, 1},
	}
	for _, tt := range tests {
		got, ok := tt.get(tt.name)
		if !ok || got != tt.want {
			t.Errorf("opcode(%s) = %d, %v; want %d", tt.name, got, ok, tt.want)
		}
	}

	if reg.OperandOpcode() != 1 || reg.OperandName() != "operand" {
		t.Errorf("operand = %d %q", reg.OperandOpcode(), reg.OperandName())
	}
	if dict[1].Opcode != nil || dict[2].Opcode != nil {
		t.Error("caller dictionary was modified")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := DefaultRegistry()

	srcs := reg.Sources()
	want := []string{"ACC", "ADR", "MEM", "IN", "IN_AV", "POP", "NULL"}
	if len(srcs) != len(want) {
		t.Fatalf("Sources() = %v, want %v", srcs, want)
	}
	for i := range want {
		if srcs[i] != want[i] {
			t.Errorf("Sources()[%d] = %s, want %s", i, srcs[i], want[i])
		}
	}

	if reg.IsSource("OP") {
		t.Error("operand source must not be usable by name")
	}
	if !reg.IsSource("POP") || reg.IsSource("PUSH") {
		t.Error("IsSource mismatch")
	}
	if !reg.IsDestination("PUSH") || reg.IsDestination("POP") {
		t.Error("IsDestination mismatch")
	}

	dsts := reg.Destinations()
	if dsts[0] != "ACC" || dsts[len(dsts)-1] != "NULL" || len(dsts) != 27 {
		t.Errorf("Destinations() = %v", dsts)
	}

	if name, ok := reg.SourceName(3); !ok || name != "OP" {
		t.Errorf("SourceName(3) = %q, %v", name, ok)
	}
	if name, ok := reg.DestinationName(25); !ok || name != "HALT" {
		t.Errorf("DestinationName(25) = %q, %v", name, ok)
	}
	if _, ok := reg.DestinationName(100); ok {
		t.Error("DestinationName(100) should not exist")
	}
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		dict []Entry
		want error
	}{
		{
			"no operand",
			[]Entry{src("a", nil, false), dst("b", nil)},
			ErrNoOperandSource,
		},
		{
			"two operands",
			[]Entry{src("a", nil, true), src("b", nil, true), dst("c", nil)},
			ErrMultipleOperandSources,
		},
		{
			"collision",
			[]Entry{src("a", Code(3), true), src("b", Code(3), false), dst("c", nil)},
			ErrOpcodeCollision,
		},
		{
			"range",
			[]Entry{src("a", nil, true), dst("b", Code(128))},
			ErrOpcodeRange,
		},
		{
			"negative",
			[]Entry{src("a", Code(-1), true)},
			ErrOpcodeRange,
		},
		{
			"duplicate",
			[]Entry{src("a", nil, true), dst("b", nil), dst("b", nil)},
			ErrDuplicateName,
		},
		{
			"operand destination",
			[]Entry{src("a", nil, true), {Role: Destination, Name: "b", IsOperand: true, Write: nopWrite}},
			ErrInvalidEntry,
		},
		{
			"missing behavior",
			[]Entry{src("a", nil, true), {Role: Destination, Name: "b"}},
			ErrInvalidEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.dict)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewRegistry() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistrySameOpcodeAcrossRoles(t *testing.T) {
	_, err := NewRegistry([]Entry{src("a", Code(5), true), dst("a", Code(5))})
	if err != nil {
		t.Fatalf("source and destination may share name and opcode: %v", err)
	}
}

func TestRegistryRunsOutOfOpcodes(t *testing.T) {
	dict := []Entry{src("op", nil, true)}
	for i := 0; i <= MaxOpcode; i++ {
		dict = append(dict, src(string(rune('a'+i%26))+string(rune('a'+i/26)), nil, false))
	}
	_, err := NewRegistry(dict)
	if !errors.Is(err, ErrOpcodeRange) {
		t.Errorf("expected ErrOpcodeRange, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []Instruction{
		{Source: 0, Destination: 0},
		{Source: 127, Destination: 127, Carry: true, Zero: true},
		{Source: 3, Destination: 25, Carry: true},
		{Source: 64, Destination: 1, Zero: true},
	}
	for _, want := range tests {
		w := want.Encode()
		if got := Decode(w); got != want {
			t.Errorf("Decode(Encode(%+v)) = %+v", want, got)
		}
	}

	if w := EncodeInstruction(1, 0, true, true); w != 0x0203 {
		t.Errorf("EncodeInstruction(1, 0, c, z) = 0x%04X, want 0x0203", w)
	}
}
