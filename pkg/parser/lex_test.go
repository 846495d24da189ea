package parser

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	src := "loop: ACC => OUT c // comment\n  word x[2] = [-1, 0xFF, 'a', \"hi\"]"
	want := []struct {
		typ  itemType
		val  string
		line int
		col  int
	}{
		{itemIdentifier, "loop", 1, 1},
		{itemColon, ":", 1, 5},
		{itemIdentifier, "ACC", 1, 7},
		{itemArrow, "=>", 1, 11},
		{itemIdentifier, "OUT", 1, 14},
		{itemIdentifier, "c", 1, 18},
		{itemIdentifier, "word", 2, 3},
		{itemIdentifier, "x", 2, 8},
		{itemLeftBracket, "[", 2, 9},
		{itemNumber, "2", 2, 10},
		{itemRightBracket, "]", 2, 11},
		{itemEquals, "=", 2, 13},
		{itemLeftBracket, "[", 2, 15},
		{itemNumber, "-1", 2, 16},
		{itemComma, ",", 2, 18},
		{itemNumber, "0xFF", 2, 20},
		{itemComma, ",", 2, 24},
		{itemChar, "'a'", 2, 26},
		{itemComma, ",", 2, 29},
		{itemString, `"hi"`, 2, 31},
		{itemRightBracket, "]", 2, 35},
		{itemEOF, "", 2, 36},
	}

	items := tokenize(src)
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %v", len(items), len(want), items)
	}
	for i, w := range want {
		got := items[i]
		if got.typ != w.typ || got.val != w.val || got.pos.Line != w.line || got.pos.Col != w.col {
			t.Errorf("item %d = %s %q at %s, want %s %q at %d:%d",
				i, got.typ, got.val, got.pos, w.typ, w.val, w.line, w.col)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
		col  int
	}{
		{"ACC => $", 1, 8},
		{"\n  12abc", 2, 3},
		{"0x => ACC", 1, 1},
		{"- => ACC", 1, 1},
		{"'ab'", 1, 1},
		{"''", 1, 1},
		{`"never closed`, 1, 1},
		{"x\n'\n'", 2, 1},
	}

	for _, tt := range tests {
		items := tokenize(tt.src)
		last := items[len(items)-1]
		if last.typ != itemError {
			t.Errorf("tokenize(%q): expected error, got %v", tt.src, items)
			continue
		}
		if last.pos.Line != tt.line || last.pos.Col != tt.col {
			t.Errorf("tokenize(%q): error at %s, want %d:%d", tt.src, last.pos, tt.line, tt.col)
		}
	}
}

func TestIdentifiersAreScannedWhole(t *testing.T) {
	items := tokenize("ACCumulator=>ACC")
	if items[0].typ != itemIdentifier || items[0].val != "ACCumulator" {
		t.Errorf("first item = %v", items[0])
	}
	if items[1].typ != itemArrow {
		t.Errorf("second item = %v", items[1])
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`abc`, "abc"},
		{`a\nb`, "a\nb"},
		{`\t\r\0`, "\t\r\x00"},
		{`\\\'\"`, `\'"`},
		{`\q`, "q"},
	}
	for _, tt := range tests {
		if got := string(unescape(tt.in)); got != tt.want {
			t.Errorf("unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
