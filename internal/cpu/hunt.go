package cpu

import (
	"sort"

	"battleship-leap/internal/game"
)

var axes = [2][2]int{{0, 1}, {1, 0}}

// Hunt searches on a checkerboard until it scores a hit, then works the
// neighbourhood of every hit that does not yet belong to a sunk ship.
type Hunt struct {
	rng  game.Rand
	open map[game.Cell]bool
}

func NewHunt(rng game.Rand) *Hunt {
	return &Hunt{rng: rng, open: make(map[game.Cell]bool)}
}

func (h *Hunt) Observe(res game.ShotResult) {
	if !res.Shot.IsHit {
		return
	}
	h.open[res.Shot.Position] = true
	if res.Sank() {
		h.retire(res.Shot.Position, res.SunkShip.Length())
	}
}

// OpenHits is the number of hits not yet attributed to a sunk ship.
func (h *Hunt) OpenHits() int { return len(h.open) }

func (h *Hunt) Next(hist History) (game.Cell, error) {
	free := func(c game.Cell) bool { return c.InBounds() && !hist.HasShot(c) }

	var line, near []game.Cell
	for _, c := range h.openCells() {
		for _, d := range axes {
			for _, sign := range [2]int{1, -1} {
				dr, dc := d[0]*sign, d[1]*sign
				n := game.Cell{Row: c.Row + dr, Col: c.Col + dc}
				if free(n) {
					near = append(near, n)
				}
				// c continues a run of hits: try the cell past its far end.
				if h.open[game.Cell{Row: c.Row - dr, Col: c.Col - dc}] {
					for h.open[n] {
						n = game.Cell{Row: n.Row + dr, Col: n.Col + dc}
					}
					if free(n) {
						line = append(line, n)
					}
				}
			}
		}
	}
	if len(line) > 0 {
		return pick(h.rng, line)
	}
	if len(near) > 0 {
		return pick(h.rng, near)
	}
	if cells := untargeted(hist, parity); len(cells) > 0 {
		return pick(h.rng, cells)
	}
	return pick(h.rng, untargeted(hist, nil))
}

// openCells lists open hits in board order so picks are reproducible.
func (h *Hunt) openCells() []game.Cell {
	out := make([]game.Cell, 0, len(h.open))
	for c := range h.open {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

func parity(c game.Cell) bool { return (c.Row+c.Col)%2 == 0 }

// retire drops the cells of a ship of the given length that sank at last.
// Every line of length open hits through last could be that ship. With one
// candidate it is retired whole, otherwise only the cells all candidates
// share.
func (h *Hunt) retire(last game.Cell, length int) {
	windows := h.windows(last, length)
	if len(windows) == 0 {
		delete(h.open, last)
		return
	}
	shared := make(map[game.Cell]int)
	for _, w := range windows {
		for _, c := range w {
			shared[c]++
		}
	}
	for c, n := range shared {
		if n == len(windows) {
			delete(h.open, c)
		}
	}
}

// windows lists the runs of length open hits along either axis that
// contain last.
func (h *Hunt) windows(last game.Cell, length int) [][]game.Cell {
	var out [][]game.Cell
	for _, d := range axes {
	next:
		for k := 0; k < length; k++ {
			w := make([]game.Cell, 0, length)
			for i := -k; i < length-k; i++ {
				c := game.Cell{Row: last.Row + i*d[0], Col: last.Col + i*d[1]}
				if !h.open[c] {
					continue next
				}
				w = append(w, c)
			}
			out = append(out, w)
		}
	}
	return out
}
