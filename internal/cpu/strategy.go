// Package cpu picks the cells the computer fires at.
package cpu

import (
	"errors"
	"fmt"

	"battleship-leap/internal/game"
)

var (
	ErrNoTargets       = errors.New("no untargeted cells left")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// DefaultSampleAttempts bounds the rejection-sampling phase before a
// strategy falls back to enumerating untargeted cells.
const DefaultSampleAttempts = 200

// History is the view of the opponent's board a strategy may consult.
type History interface {
	HasShot(c game.Cell) bool
	Shots() []game.Shot
}

// Strategy selects the next cell to fire at. It never returns a cell
// already in the history.
type Strategy interface {
	Next(h History) (game.Cell, error)
}

// Observer is implemented by strategies that learn from shot outcomes.
type Observer interface {
	Observe(res game.ShotResult)
}

// New builds a strategy by its configuration name.
func New(name string, rng game.Rand) (Strategy, error) {
	switch name {
	case "", "random":
		return NewRandom(rng), nil
	case "hunt":
		return NewHunt(rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Random fires uniformly at untargeted cells.
type Random struct {
	rng      game.Rand
	attempts int
}

func NewRandom(rng game.Rand) *Random {
	return &Random{rng: rng, attempts: DefaultSampleAttempts}
}

func (r *Random) Next(h History) (game.Cell, error) {
	for i := 0; i < r.attempts; i++ {
		c := game.CellFromIndex(r.rng.Intn(game.BoardCells))
		if !h.HasShot(c) {
			return c, nil
		}
	}
	return pick(r.rng, untargeted(h, nil))
}

func untargeted(h History, keep func(game.Cell) bool) []game.Cell {
	var out []game.Cell
	for i := 0; i < game.BoardCells; i++ {
		c := game.CellFromIndex(i)
		if h.HasShot(c) {
			continue
		}
		if keep != nil && !keep(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func pick(rng game.Rand, cells []game.Cell) (game.Cell, error) {
	if len(cells) == 0 {
		return game.Cell{}, ErrNoTargets
	}
	return cells[rng.Intn(len(cells))], nil
}
