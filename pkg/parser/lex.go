package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type stateFn func(*lexer) stateFn

const eof = -1

type itemType int

const (
	itemError itemType = iota // value is the text of the error
	itemIdentifier
	itemNumber
	itemChar   // including quotes
	itemString // including quotes
	itemColon
	itemArrow
	itemEquals
	itemLeftBracket
	itemRightBracket
	itemComma
	itemEOF
)

func (it itemType) String() string {
	switch it {
	case itemError:
		return "<error>"
	case itemIdentifier:
		return "identifier"
	case itemNumber:
		return "number"
	case itemChar:
		return "character"
	case itemString:
		return "string"
	case itemColon:
		return `":"`
	case itemArrow:
		return `"=>"`
	case itemEquals:
		return `"="`
	case itemLeftBracket:
		return `"["`
	case itemRightBracket:
		return `"]"`
	case itemComma:
		return `","`
	case itemEOF:
		return "end of input"
	default:
		return fmt.Sprintf("<unknown token %d>", int(it))
	}
}

type item struct {
	typ itemType
	pos Pos
	val string
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "end of input"
	case itemError:
		return i.val
	case itemIdentifier, itemNumber, itemChar, itemString:
		if len(i.val) > 10 {
			return fmt.Sprintf("%s %.10q...", i.typ, i.val)
		}
		return fmt.Sprintf("%s %q", i.typ, i.val)
	}
	return i.typ.String()
}

// lexer holds the state of the scanner.
type lexer struct {
	input     string
	pos       int // current position in the input
	start     int // start position of this item
	atEOF     bool
	line      int // 1+number of newlines seen
	lineStart int // offset of the first byte of the current line
	startPos  Pos
	item      item
}

func newLexer(input string) *lexer {
	return &lexer{
		input:    input,
		line:     1,
		startPos: Pos{Line: 1, Col: 1},
	}
}

// errorf records an error item and stops the scan: every later call to
// nextItem returns EOF.
func (l *lexer) errorf(format string, args ...any) stateFn {
	l.item = item{itemError, l.startPos, fmt.Sprintf(format, args...)}
	l.input = l.input[:0]
	l.start = 0
	l.pos = 0
	l.lineStart = 0
	return nil
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.atEOF = true
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. It is a no-op after next returned eof.
func (l *lexer) backup() {
	if l.atEOF || l.pos == 0 {
		return
	}
	r, w := utf8.DecodeLastRuneInString(l.input[:l.pos])
	l.pos -= w
	if r == '\n' {
		l.line--
		l.lineStart = strings.LastIndexByte(l.input[:l.pos], '\n') + 1
	}
}

func (l *lexer) column(offset int) int {
	return utf8.RuneCountInString(l.input[l.lineStart:offset]) + 1
}

// ignore drops the pending input. Only use it for text consumed with next,
// so line tracking stays correct.
func (l *lexer) ignore() {
	l.start = l.pos
	l.startPos = Pos{Line: l.line, Col: l.column(l.pos)}
}

func (l *lexer) emit(t itemType) stateFn {
	l.item = item{t, l.startPos, l.input[l.start:l.pos]}
	l.ignore()
	return nil
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid string) bool {
	accepted := false
	for strings.ContainsRune(valid, l.next()) {
		accepted = true
	}
	l.backup()
	return accepted
}

// nextItem runs the state machine until it produces an item.
func (l *lexer) nextItem() item {
	l.item = item{itemEOF, Pos{Line: l.line, Col: l.column(l.pos)}, ""}
	state := lexText
	for state != nil {
		state = state(l)
	}
	return l.item
}

// tokenize scans the whole input. The last item is either itemEOF or
// itemError.
func tokenize(input string) []item {
	l := newLexer(input)
	var items []item
	for {
		it := l.nextItem()
		items = append(items, it)
		if it.typ == itemEOF || it.typ == itemError {
			return items
		}
	}
}

const (
	identStart = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	identChars = identStart + "0123456789"
	space      = " \t\r\n"
)

func lexText(l *lexer) stateFn {
	for {
		l.acceptRun(space)
		if !strings.HasPrefix(l.input[l.pos:], "//") {
			break
		}
		for r := l.next(); r != '\n' && r != eof; r = l.next() {
		}
	}
	l.ignore()

	switch r := l.next(); {
	case r == eof:
		return l.emit(itemEOF)
	case r == ':':
		return l.emit(itemColon)
	case r == '=':
		if l.accept(">") {
			return l.emit(itemArrow)
		}
		return l.emit(itemEquals)
	case r == '[':
		return l.emit(itemLeftBracket)
	case r == ']':
		return l.emit(itemRightBracket)
	case r == ',':
		return l.emit(itemComma)
	case r == '\'':
		return lexChar
	case r == '"':
		return lexString
	case r == '-' || ('0' <= r && r <= '9'):
		l.backup()
		return lexNumber
	case strings.ContainsRune(identStart, r):
		return lexIdentifier
	default:
		return l.errorf("unexpected character %q", r)
	}
}

func lexNumber(l *lexer) stateFn {
	l.accept("-")
	digits := "0123456789"
	if l.accept("0") && l.accept("x") {
		digits = "0123456789abcdefABCDEF"
	}
	if !l.acceptRun(digits) && !strings.HasSuffix(l.input[l.start:l.pos], "0") {
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	// Reject 12abc instead of splitting it into a number and an identifier.
	if strings.ContainsRune(identChars, l.peek()) {
		l.acceptRun(identChars)
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	return l.emit(itemNumber)
}

func lexIdentifier(l *lexer) stateFn {
	l.acceptRun(identChars)
	return l.emit(itemIdentifier)
}

func lexChar(l *lexer) stateFn {
	switch l.next() {
	case eof, '\n':
		return l.errorf("unterminated character literal")
	case '\'':
		return l.errorf("empty character literal")
	case '\\':
		if r := l.next(); r == eof || r == '\n' {
			return l.errorf("unterminated character literal")
		}
	}
	if l.next() != '\'' {
		return l.errorf("unterminated character literal")
	}
	return l.emit(itemChar)
}

func lexString(l *lexer) stateFn {
	for {
		switch l.next() {
		case eof:
			return l.errorf("unterminated string")
		case '\\':
			if l.next() == eof {
				return l.errorf("unterminated string")
			}
		case '"':
			return l.emit(itemString)
		}
	}
}

// unescape decodes the body of a character or string literal.
func unescape(s string) []rune {
	var out []rune
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			out = append(out, r)
			continue
		}
		escaped = false
		switch r {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		default:
			out = append(out, r)
		}
	}
	return out
}
