package game

import (
	"fmt"
	"strings"
)

type ShipType int

const (
	ShipUndefined ShipType = iota
	Carrier
	Battleship
	Cruiser
	Submarine
	PatrolBoat
)

// FleetCells is the number of cells the full fleet occupies.
const FleetCells = 17

var fleet = []ShipType{Carrier, Battleship, Cruiser, Submarine, PatrolBoat}

// ShipTypes returns the fleet in deployment order.
func ShipTypes() []ShipType {
	out := make([]ShipType, len(fleet))
	copy(out, fleet)
	return out
}

func (t ShipType) String() string {
	switch t {
	case Carrier:
		return "carrier"
	case Battleship:
		return "battleship"
	case Cruiser:
		return "cruiser"
	case Submarine:
		return "submarine"
	case PatrolBoat:
		return "patrolBoat"
	default:
		return "unknown"
	}
}

// DisplayName is the spoken form of the type.
func (t ShipType) DisplayName() string {
	if t == PatrolBoat {
		return "patrol boat"
	}
	return t.String()
}

func (t ShipType) IsValid() bool {
	return t >= Carrier && t <= PatrolBoat
}

func (t ShipType) Length() int {
	switch t {
	case Carrier:
		return 5
	case Battleship:
		return 4
	case Cruiser, Submarine:
		return 3
	case PatrolBoat:
		return 2
	default:
		return 0
	}
}

// ParseShipType accepts the String form, the display name, or "patrol".
func ParseShipType(s string) (ShipType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "patrol", "patrol boat", "patrolboat":
		return PatrolBoat, nil
	}
	for _, t := range fleet {
		if s == strings.ToLower(t.String()) {
			return t, nil
		}
	}
	return ShipUndefined, ErrUnknownShip
}

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (t ShipType) MarshalText() ([]byte, error) {
	if t == ShipUndefined {
		return []byte{}, nil
	}
	return []byte(t.String()), nil
}

func (t *ShipType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = ShipUndefined
		return nil
	}
	v, err := ParseShipType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "horizontal", "h", "":
		*o = Horizontal
	case "vertical", "v":
		*o = Vertical
	default:
		return fmt.Errorf("invalid orientation %q", b)
	}
	return nil
}

// Step is the (row, col) delta between consecutive segments.
func (o Orientation) Step() (int, int) {
	if o == Vertical {
		return 1, 0
	}
	return 0, 1
}

// CellsFor derives the cells a ship of the given length covers from its anchor.
// Cells may fall outside the board; callers check bounds.
func CellsFor(anchor Cell, o Orientation, length int) []Cell {
	dr, dc := o.Step()
	out := make([]Cell, length)
	for i := 0; i < length; i++ {
		out[i] = Cell{Row: anchor.Row + i*dr, Col: anchor.Col + i*dc}
	}
	return out
}

// Ship is one vessel of a fleet. Only its Board mutates it.
type Ship struct {
	kind        ShipType
	orientation Orientation
	anchor      Cell
	placed      bool
	hits        []bool
}

func newShip(t ShipType) *Ship {
	return &Ship{kind: t, hits: make([]bool, t.Length())}
}

func (s *Ship) Type() ShipType           { return s.kind }
func (s *Ship) Length() int              { return s.kind.Length() }
func (s *Ship) Orientation() Orientation { return s.orientation }
func (s *Ship) IsPlaced() bool           { return s.placed }
func (s *Ship) Anchor() (Cell, bool)     { return s.anchor, s.placed }

// Cells returns the occupied cells, or nil for an unplaced ship.
func (s *Ship) Cells() []Cell {
	if !s.placed {
		return nil
	}
	return CellsFor(s.anchor, s.orientation, s.Length())
}

// Segment reports which segment of the ship covers c.
func (s *Ship) Segment(c Cell) (int, bool) {
	if !s.placed {
		return 0, false
	}
	dr, dc := s.orientation.Step()
	for i := 0; i < s.Length(); i++ {
		if s.anchor.Row+i*dr == c.Row && s.anchor.Col+i*dc == c.Col {
			return i, true
		}
	}
	return 0, false
}

// HitCells returns the struck cells in segment order.
func (s *Ship) HitCells() []Cell {
	var out []Cell
	for i, c := range s.Cells() {
		if s.hits[i] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Ship) HitCount() int {
	n := 0
	for _, h := range s.hits {
		if h {
			n++
		}
	}
	return n
}

func (s *Ship) IsSunk() bool {
	return s.placed && s.HitCount() == s.Length()
}

func (s *Ship) place(anchor Cell, o Orientation) {
	s.anchor = anchor
	s.orientation = o
	s.placed = true
}

func (s *Ship) unplace() {
	s.anchor = Cell{}
	s.placed = false
}
