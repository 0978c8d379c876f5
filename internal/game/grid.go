package game

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	BoardSize  = 10
	BoardCells = BoardSize * BoardSize
)

const rowNames = "ABCDEFGHIJ"

// Cell is a board coordinate. Row and Col are zero-based.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

// Index is the row-major position of c, used for flattened boards.
func (c Cell) Index() int { return c.Row*BoardSize + c.Col }

func CellFromIndex(i int) Cell { return Cell{Row: i / BoardSize, Col: i % BoardSize} }

// String renders the cell the way it is announced: row letter, then 1-based column.
func (c Cell) String() string {
	if !c.InBounds() {
		return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
	}
	return string(rowNames[c.Row]) + strconv.Itoa(c.Col+1)
}

func (c Cell) RowName() string {
	if c.Row < 0 || c.Row >= BoardSize {
		return ""
	}
	return string(rowNames[c.Row])
}

func (c Cell) ColName() string { return strconv.Itoa(c.Col + 1) }

// ParseCell is the inverse of Cell.String ("B5", "b 5", "J10").
func ParseCell(s string) (Cell, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if len(s) < 2 {
		return Cell{}, fmt.Errorf("invalid cell %q", s)
	}
	row := strings.IndexByte(rowNames, s[0])
	if row < 0 {
		return Cell{}, fmt.Errorf("invalid row in %q", s)
	}
	col, err := strconv.Atoi(s[1:])
	if err != nil {
		return Cell{}, fmt.Errorf("invalid column in %q", s)
	}
	c := Cell{Row: row, Col: col - 1}
	if !c.InBounds() {
		return Cell{}, fmt.Errorf("cell %q: %w", s, ErrOutOfBounds)
	}
	return c, nil
}

// Neighbors returns the in-bounds orthogonal neighbours of c.
func (c Cell) Neighbors() []Cell {
	out := make([]Cell, 0, 4)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := Cell{Row: c.Row + d[0], Col: c.Col + d[1]}
		if n.InBounds() {
			out = append(out, n)
		}
	}
	return out
}
