// Package grid keeps the character cells of a fixed size text screen.
package grid

// GetGridCoords converts a linear cell index into column and row.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

const (
	backspace = 0x08
	del       = 0x7F
)

// Screen is a cols x rows grid of runes with a cursor. Output past the last
// row scrolls everything up by one line.
type Screen struct {
	cols, rows int
	cells      []rune
	cursor     int
}

func NewScreen(cols, rows int) *Screen {
	return &Screen{
		cols:  cols,
		rows:  rows,
		cells: make([]rune, cols*rows),
	}
}

func (s *Screen) Cols() int { return s.cols }
func (s *Screen) Rows() int { return s.rows }

// Cursor returns the index of the cell the next character goes to.
func (s *Screen) Cursor() int { return s.cursor }

// Cell returns the rune at index, 0 when the cell is empty.
func (s *Screen) Cell(index int) rune { return s.cells[index] }

// Put writes one output word. CR and LF move to the next line, DEL and
// backspace erase the previous cell on the current line.
func (s *Screen) Put(n uint16) {
	switch n {
	case '\r', '\n':
		_, y := GetGridCoords(s.cursor, s.cols)
		s.cursor = (y + 1) * s.cols
	case del, backspace:
		if x, _ := GetGridCoords(s.cursor, s.cols); x > 0 {
			s.cursor--
			s.cells[s.cursor] = 0
		}
		return
	default:
		s.cells[s.cursor] = rune(n)
		s.cursor++
	}
	if s.cursor >= len(s.cells) {
		s.scroll()
	}
}

// Write puts every rune of str.
func (s *Screen) Write(str string) {
	for _, r := range str {
		s.Put(uint16(r))
	}
}

func (s *Screen) scroll() {
	copy(s.cells, s.cells[s.cols:])
	clear(s.cells[len(s.cells)-s.cols:])
	s.cursor -= s.cols
}

func (s *Screen) Clear() {
	clear(s.cells)
	s.cursor = 0
}

// Lines returns each row as a string with empty cells as spaces and
// trailing spaces removed.
func (s *Screen) Lines() []string {
	lines := make([]string, s.rows)
	for y := range lines {
		row := make([]rune, s.cols)
		end := 0
		for x := range row {
			r := s.cells[y*s.cols+x]
			if r == 0 {
				r = ' '
			} else {
				end = x + 1
			}
			row[x] = r
		}
		lines[y] = string(row[:end])
	}
	return lines
}
