package game

import "fmt"

// DefaultPlacementAttempts bounds AutoDeploy's rejection sampling.
const DefaultPlacementAttempts = 10000

// Rand is the subset of *rand.Rand the board and strategies need.
type Rand interface {
	Intn(n int) int
}

// Board holds one side's fleet and the shots fired at it.
type Board struct {
	ships  []*Ship
	grid   [BoardSize][BoardSize]ShipType
	shots  []Shot
	fired  [BoardCells]bool
	locked bool
}

// NewBoard returns a board with one unplaced ship of each type.
func NewBoard() *Board {
	b := &Board{}
	for _, t := range fleet {
		b.ships = append(b.ships, newShip(t))
	}
	return b
}

func (b *Board) Ship(t ShipType) *Ship {
	if !t.IsValid() {
		return nil
	}
	return b.ships[int(t)-1]
}

func (b *Board) Ships() []*Ship {
	out := make([]*Ship, len(b.ships))
	copy(out, b.ships)
	return out
}

// IsComplete reports whether every ship of the fleet is placed.
func (b *Board) IsComplete() bool {
	for _, s := range b.ships {
		if !s.placed {
			return false
		}
	}
	return true
}

func (b *Board) IsLocked() bool { return b.locked }

// Lock ends setup for this board. Ships cannot move afterwards.
func (b *Board) Lock() error {
	if !b.IsComplete() {
		return ErrIncompleteFleet
	}
	b.locked = true
	return nil
}

// ShipAt returns the ship covering c and the segment offset of c within it.
func (b *Board) ShipAt(c Cell) (ShipType, int, bool) {
	if !c.InBounds() {
		return ShipUndefined, 0, false
	}
	t := b.grid[c.Row][c.Col]
	if t == ShipUndefined {
		return ShipUndefined, 0, false
	}
	seg, _ := b.Ship(t).Segment(c)
	return t, seg, true
}

// CanPlace checks a placement without applying it. A ship being moved
// does not collide with its own current cells.
func (b *Board) CanPlace(t ShipType, anchor Cell, o Orientation) error {
	if b.Ship(t) == nil {
		return ErrUnknownShip
	}
	for _, c := range CellsFor(anchor, o, t.Length()) {
		if !c.InBounds() {
			return fmt.Errorf("%s at %s %s leaves the board: %w", t, anchor, o, ErrInvalidPlacement)
		}
		if occ := b.grid[c.Row][c.Col]; occ != ShipUndefined && occ != t {
			return fmt.Errorf("%s at %s %s overlaps %s at %s: %w", t, anchor, o, occ, c, ErrInvalidPlacement)
		}
	}
	return nil
}

// Place validates and applies a placement. Rejections leave the board untouched.
func (b *Board) Place(t ShipType, anchor Cell, o Orientation) error {
	if b.locked {
		return ErrFleetLocked
	}
	if err := b.CanPlace(t, anchor, o); err != nil {
		return err
	}
	b.set(b.Ship(t), anchor, o)
	return nil
}

func (b *Board) set(s *Ship, anchor Cell, o Orientation) {
	b.clear(s)
	s.place(anchor, o)
	for _, c := range s.Cells() {
		b.grid[c.Row][c.Col] = s.kind
	}
}

func (b *Board) clear(s *Ship) {
	for _, c := range s.Cells() {
		b.grid[c.Row][c.Col] = ShipUndefined
	}
	s.unplace()
}

// AutoDeploy places every unplaced ship at random. Attempts are counted
// across the whole fleet; when they run out the ships placed by this call
// are removed again and ErrPlacementFailed is returned.
func (b *Board) AutoDeploy(rng Rand, maxAttempts int) error {
	if b.locked {
		return ErrFleetLocked
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPlacementAttempts
	}
	var placed []*Ship
	tries := 0
	for _, s := range b.ships {
		if s.placed {
			continue
		}
		for {
			if tries >= maxAttempts {
				for _, p := range placed {
					b.clear(p)
				}
				return fmt.Errorf("%w: %s after %d attempts", ErrPlacementFailed, s.kind, tries)
			}
			tries++
			o := Orientation(rng.Intn(2))
			anchor := Cell{Row: rng.Intn(BoardSize), Col: rng.Intn(BoardSize)}
			if b.CanPlace(s.kind, anchor, o) != nil {
				continue
			}
			b.set(s, anchor, o)
			placed = append(placed, s)
			break
		}
	}
	return nil
}

// FireShot resolves a shot at target. Duplicate or off-board targets are
// rejected with no change to the board.
func (b *Board) FireShot(target Cell) (ShotResult, error) {
	if !target.InBounds() {
		return ShotResult{}, fmt.Errorf("fire at %s: %w", target, ErrOutOfBounds)
	}
	if b.fired[target.Index()] {
		return ShotResult{}, fmt.Errorf("fire at %s: %w", target, ErrDuplicateShot)
	}

	res := ShotResult{Shot: Shot{Position: target}}
	if t := b.grid[target.Row][target.Col]; t != ShipUndefined {
		s := b.Ship(t)
		wasSunk := s.IsSunk()
		seg, _ := s.Segment(target)
		s.hits[seg] = true
		res.Shot.IsHit = true
		if !wasSunk && s.IsSunk() {
			res.SunkShip = t
		}
	}
	b.fired[target.Index()] = true
	b.shots = append(b.shots, res.Shot)
	res.GameOver = b.AllSunk()
	return res, nil
}

func (b *Board) HasShot(c Cell) bool {
	return c.InBounds() && b.fired[c.Index()]
}

// Shots returns the shot history in firing order.
func (b *Board) Shots() []Shot {
	out := make([]Shot, len(b.shots))
	copy(out, b.shots)
	return out
}

func (b *Board) ShotCount() int { return len(b.shots) }

// AllSunk reports whether every placed ship is sunk. A board without ships
// has nothing to sink.
func (b *Board) AllSunk() bool {
	placed := false
	for _, s := range b.ships {
		if !s.placed {
			continue
		}
		placed = true
		if !s.IsSunk() {
			return false
		}
	}
	return placed
}

// Occupancy flattens the board row-major: 1 where a ship sits, 0 for water.
func (b *Board) Occupancy() []uint8 {
	out := make([]uint8, BoardCells)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.grid[r][c] != ShipUndefined {
				out[r*BoardSize+c] = 1
			}
		}
	}
	return out
}

// Validate rechecks the fleet invariants from the ships themselves.
func (b *Board) Validate() error {
	seen := make(map[Cell]ShipType, FleetCells)
	for _, s := range b.ships {
		if !s.placed {
			return fmt.Errorf("%s not placed: %w", s.kind, ErrIncompleteFleet)
		}
		for _, c := range s.Cells() {
			if !c.InBounds() {
				return fmt.Errorf("%s leaves the board at %s: %w", s.kind, c, ErrInvalidPlacement)
			}
			if other, ok := seen[c]; ok {
				return fmt.Errorf("%s overlaps %s at %s: %w", s.kind, other, c, ErrInvalidPlacement)
			}
			seen[c] = s.kind
		}
	}
	if len(seen) != FleetCells {
		return fmt.Errorf("board must contain exactly %d ship cells, has %d", FleetCells, len(seen))
	}
	return nil
}
