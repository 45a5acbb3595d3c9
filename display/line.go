package display

// Line is one logical line of terminal content: the full unwrapped cell
// sequence as originally written. Its length reflects the column width in
// effect at the last write, so it can be stale relative to the current
// width after a resize; the reflow index resolves that.
type Line struct {
	Cells []Cell
}

// NewLine creates a new empty logical line.
func NewLine() *Line {
	return &Line{Cells: make([]Cell, 0)}
}

// NewLineFromCells creates a line from existing cells.
func NewLineFromCells(cells []Cell) *Line {
	// Copy to avoid aliasing
	copied := make([]Cell, len(cells))
	copy(copied, cells)
	return &Line{Cells: copied}
}

// NewLineFromString creates a line from a string with a uniform attribute,
// expanding wide runes into leader/trailing cell pairs.
func NewLineFromString(s string, attr AttrWord) *Line {
	l := NewLine()
	for _, r := range s {
		l.Cells = append(l.Cells, CellsForRune(r, attr)...)
	}
	return l
}

// Len returns the number of cells in the line.
func (l *Line) Len() int {
	return len(l.Cells)
}

// SetCell sets a cell at the given position, extending the line with
// blanks if necessary.
func (l *Line) SetCell(x int, cell Cell) {
	for len(l.Cells) <= x {
		l.Cells = append(l.Cells, BlankCell)
	}
	l.Cells[x] = cell
}

// Append adds a cell to the end of the line.
func (l *Line) Append(cell Cell) {
	l.Cells = append(l.Cells, cell)
}

// Truncate removes all cells from position x onwards.
func (l *Line) Truncate(x int) {
	if x < len(l.Cells) {
		l.Cells = l.Cells[:x]
	}
}

// Clear removes all cells from the line.
func (l *Line) Clear() {
	l.Cells = l.Cells[:0]
}

// Clone creates a deep copy of the line.
func (l *Line) Clone() *Line {
	return NewLineFromCells(l.Cells)
}

// SignificantLength returns the content length with trailing blanks
// stripped, floored at one so every line owns at least one physical row.
func (l *Line) SignificantLength() int {
	n := len(l.Cells)
	for n > 1 && l.Cells[n-1].IsBlank() {
		n--
	}
	if n < 1 {
		return 1
	}
	return n
}
