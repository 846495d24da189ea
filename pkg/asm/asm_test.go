package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/parser"
)

// testRegistry has one plain source (SRC = 0), the operand source (OP = 1)
// and one destination (DEST = 0).
func testRegistry(t *testing.T) *cpu.Registry {
	t.Helper()
	reg, err := cpu.NewRegistry([]cpu.Entry{
		{Role: cpu.Source, Name: "SRC", Read: func(c *cpu.CPU) (uint16, bool) { return 0, true }},
		{Role: cpu.Source, Name: "OP", IsOperand: true, Read: func(c *cpu.CPU) (uint16, bool) { return 0, true }},
		{Role: cpu.Destination, Name: "DEST", Write: func(c *cpu.CPU, n, _ uint16) {}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []uint16
		wantErr string
	}{
		{"basic instruction", `SRC => DEST`, []uint16{0}, ""},
		{"flags", `SRC => DEST c z `, []uint16{3}, ""},
		{"operand", `100 => DEST`, []uint16{512, 100}, ""},
		{"negative operand", `-1 => DEST`, []uint16{512, 0xFFFF}, ""},
		{"string operand", `"xy" => DEST`, []uint16{512, 'x'}, ""},
		{"multiple instructions", `SRC => DEST SRC => DEST z SRC => DEST c`, []uint16{0, 1, 2}, ""},
		{"variable", `word var = 10`, []uint16{10}, ""},
		{"uninitialized", `word a[3] word b = 1`, []uint16{0, 0, 0, 1}, ""},
		{"string array", `word var[4] = "abc"`, []uint16{97, 98, 99, 0}, ""},
		{"short list", `word var[4] = [1, 2]`, []uint16{1, 2, 0, 0}, ""},
		{
			"multidimensional array",
			`word var[2][2][2] = [[['a',-1],"b"],0x5]`,
			[]uint16{97, 65535, 98, 0, 5, 5, 5, 5},
			"",
		},
		{"scalar broadcast", `word var[2][3] = 7`, []uint16{7, 7, 7, 7, 7, 7}, ""},
		{
			"references",
			`label: var => DEST label => DEST word var`,
			[]uint16{512, 4, 512, 0, 0},
			"",
		},
		{"forward label", `end => DEST SRC => DEST end: SRC => DEST`, []uint16{512, 3, 0, 0}, ""},
		{"too long", `word var[3] = "abc"`, nil, "value too long"},
		{"too deep", `word var[2] = [['a', 'b']]`, nil, "value too deep"},
		{"nested too long", `word var[2][1] = [[1], [2, 3]]`, nil, "value too long"},
		{"undefined reference", `SRC => DEST nowhere => DEST`, nil, `undefined name "nowhere"`},
		{"memory overflow", `word a[65536] SRC => DEST SRC => DEST`, nil, "2 words over"},
		{"large variable", `word a[70000]`, nil, "4464 words over"},
		{"overflow across variables", `word a[65535] word b[3]`, nil, "2 words over"},
		{"huge variable", `word a[65536][65536]`, nil, "words over"},
	}

	reg := testRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parser.Parse(tt.code, reg)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got, err := Compile(p, reg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, got)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				var aerr *Error
				if !errors.As(err, &aerr) {
					t.Errorf("expected *Error, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("image mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileErrorPositions(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		code string
		pos  parser.Pos
	}{
		{"SRC => DEST\n  missing => DEST", parser.Pos{Line: 2, Col: 3}},
		{"SRC => DEST\nword v[1] = [1, 2]", parser.Pos{Line: 2, Col: 6}},
	}
	for _, tt := range tests {
		p, err := parser.Parse(tt.code, reg)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.code, err)
		}
		_, err = Compile(p, reg)
		var aerr *Error
		if !errors.As(err, &aerr) {
			t.Fatalf("Compile(%q): expected *Error, got %v", tt.code, err)
		}
		if aerr.Pos != tt.pos {
			t.Errorf("Compile(%q): error at %s, want %s", tt.code, aerr.Pos, tt.pos)
		}
	}
}

func TestCompileUnknownNames(t *testing.T) {
	reg := testRegistry(t)
	p := &parser.Program{Instructions: []parser.Instruction{
		{Source: "NOPE", Destination: "DEST", Size: 1},
	}}
	if _, err := Compile(p, reg); err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Errorf("expected unknown source error, got %v", err)
	}

	p.Instructions[0] = parser.Instruction{Source: "SRC", Destination: "NOPE", Size: 1}
	if _, err := Compile(p, reg); err == nil || !strings.Contains(err.Error(), "unknown destination") {
		t.Errorf("expected unknown destination error, got %v", err)
	}
}

func TestCompileExactlyFillsMemory(t *testing.T) {
	reg := testRegistry(t)
	words, _, err := Assemble("SRC => DEST word a[65535] = 9", reg)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(words) != MaxWords {
		t.Errorf("len = %d, want %d", len(words), MaxWords)
	}
	if words[MaxWords-1] != 9 {
		t.Errorf("last word = %d, want 9", words[MaxWords-1])
	}
}

func TestCompileFullMemoryVariable(t *testing.T) {
	reg := testRegistry(t)
	words, _, err := Assemble("word a[256][256] = 3", reg)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(words) != MaxWords || words[0] != 3 || words[MaxWords-1] != 3 {
		t.Errorf("len = %d, first = %d, last = %d", len(words), words[0], words[len(words)-1])
	}
}

func TestCompileLabelPastMemory(t *testing.T) {
	reg := testRegistry(t)
	// 2 + 65534 words fill memory, leaving end at address 65536.
	src := "end => DEST\n" + strings.Repeat("SRC => DEST\n", MaxWords-2) + "end:\n"
	_, _, err := Assemble(src, reg)
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(aerr.Msg, `address 65536 of "end"`) || aerr.Pos.Line != 1 {
		t.Errorf("unexpected error %v", aerr)
	}

	// One instruction fewer and the label lands on the last word.
	src = "end => DEST\n" + strings.Repeat("SRC => DEST\n", MaxWords-3) + "end:\nSRC => DEST\n"
	words, _, err := Assemble(src, reg)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if words[1] != MaxWords-1 {
		t.Errorf("end resolved to %d, want %d", words[1], MaxWords-1)
	}
}

func TestAssembleParseError(t *testing.T) {
	_, _, err := Assemble("SRC => ", testRegistry(t))
	var perr *parser.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *parser.Error, got %v", err)
	}
}

func TestAssembleSourceMap(t *testing.T) {
	code := `
// comment
100 => DEST

label:
SRC => DEST
word v = 3
  label => DEST z
`
	_, sourceMap, err := Assemble(code, testRegistry(t))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := map[uint16]int{0: 3, 2: 6, 3: 8}
	if diff := cmp.Diff(want, sourceMap); diff != "" {
		t.Errorf("source map mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleDefaultRegistry(t *testing.T) {
	reg := cpu.DefaultRegistry()
	words, _, err := Assemble("'A' => OUT NULL => HALT", reg)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	op := reg.OperandOpcode()
	out, _ := reg.DestinationOpcode("OUT")
	null, _ := reg.SourceOpcode("NULL")
	halt, _ := reg.DestinationOpcode("HALT")
	want := []uint16{
		cpu.EncodeInstruction(op, out, false, false), 'A',
		cpu.EncodeInstruction(null, halt, false, false),
	}
	if diff := cmp.Diff(want, words); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}
}
