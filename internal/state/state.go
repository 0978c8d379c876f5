// Package state holds the match phase and turn machine. It never looks at
// boards directly; shot outcomes arrive through Resolve.
package state

import (
	"errors"
	"fmt"

	"battleship-leap/internal/game"
)

type Phase int

const (
	Setup Phase = iota
	Playing
	End
)

func (p Phase) String() string {
	switch p {
	case Setup:
		return "setup"
	case Playing:
		return "playing"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type Side int

const (
	None Side = iota
	Player
	CPU
)

func (s Side) String() string {
	switch s {
	case Player:
		return "player"
	case CPU:
		return "cpu"
	default:
		return "none"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Opponent returns the other side; None stays None.
func (s Side) Opponent() Side {
	switch s {
	case Player:
		return CPU
	case CPU:
		return Player
	default:
		return None
	}
}

var (
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrFleetIncomplete   = errors.New("player fleet is not fully deployed")
	ErrNotYourTurn       = errors.New("not this side's turn")
	ErrGameOver          = errors.New("game is over")
	ErrAlreadyWaiting    = errors.New("a cpu shot is already awaiting acknowledgment")
)

// Fleet is what StartGame needs to know about the player's board.
type Fleet interface {
	IsComplete() bool
}

// GameState is the phase/turn/winner machine of one match.
type GameState struct {
	phase   Phase
	turn    Side
	winner  Side
	waiting bool
}

// New returns a state in the given phase with the player to move.
func New(phase Phase) *GameState {
	return &GameState{phase: phase, turn: Player}
}

func (g *GameState) Phase() Phase  { return g.phase }
func (g *GameState) Turn() Side    { return g.turn }
func (g *GameState) Winner() Side  { return g.winner }
func (g *GameState) Waiting() bool { return g.waiting }

func (g *GameState) IsPlayerTurn() bool { return g.phase == Playing && g.turn == Player }
func (g *GameState) IsCPUTurn() bool    { return g.phase == Playing && g.turn == CPU }

// WaitingForPlayer reports whether an announced cpu shot awaits the
// player's spoken acknowledgment.
func (g *GameState) WaitingForPlayer() bool { return g.IsCPUTurn() && g.waiting }

// Headline is the status line for the current phase.
func (g *GameState) Headline() string {
	switch g.phase {
	case Setup:
		return "deploy ships"
	case Playing:
		return "game on"
	default:
		if g.winner == Player {
			return "you won!"
		}
		return "game over"
	}
}

// StartGame leaves setup. A non-nil fleet must be complete.
func (g *GameState) StartGame(fleet Fleet) error {
	if g.phase != Setup {
		return fmt.Errorf("start from %s: %w", g.phase, ErrInvalidTransition)
	}
	if fleet != nil && !fleet.IsComplete() {
		return ErrFleetIncomplete
	}
	g.phase = Playing
	g.turn = Player
	g.waiting = false
	return nil
}

// NextTurn hands the move to the other side.
func (g *GameState) NextTurn() error {
	if err := g.requirePlaying("next turn"); err != nil {
		return err
	}
	g.turn = g.turn.Opponent()
	g.waiting = false
	return nil
}

// EndGame moves to the terminal phase with the given winner.
func (g *GameState) EndGame(winner Side) error {
	if err := g.requirePlaying("end game"); err != nil {
		return err
	}
	if winner != Player && winner != CPU {
		return fmt.Errorf("end game with winner %s: %w", winner, ErrInvalidTransition)
	}
	g.phase = End
	g.winner = winner
	g.waiting = false
	return nil
}

// Resolve applies the outcome of a shot fired by shooter: the game ends on
// the winning shot, otherwise the turn passes.
func (g *GameState) Resolve(shooter Side, res game.ShotResult) error {
	if err := g.requirePlaying("resolve shot"); err != nil {
		return err
	}
	if shooter != g.turn {
		return fmt.Errorf("%s fired on %s's turn: %w", shooter, g.turn, ErrNotYourTurn)
	}
	if res.GameOver {
		return g.EndGame(shooter)
	}
	return g.NextTurn()
}

// BeginCPUWait marks the announced cpu shot as pending. Only one may be
// outstanding.
func (g *GameState) BeginCPUWait() error {
	if err := g.requirePlaying("await cpu shot"); err != nil {
		return err
	}
	if g.turn != CPU {
		return ErrNotYourTurn
	}
	if g.waiting {
		return ErrAlreadyWaiting
	}
	g.waiting = true
	return nil
}

func (g *GameState) requirePlaying(action string) error {
	switch g.phase {
	case Playing:
		return nil
	case End:
		return fmt.Errorf("%s: %w", action, ErrGameOver)
	default:
		return fmt.Errorf("%s during %s: %w", action, g.phase, ErrInvalidTransition)
	}
}

// Snapshot is a read-only copy for presentation.
type Snapshot struct {
	Phase    Phase  `json:"phase"`
	Turn     Side   `json:"turn"`
	Winner   Side   `json:"winner"`
	Waiting  bool   `json:"waitingForCpuResponse"`
	Headline string `json:"headline"`
}

func (g *GameState) Snapshot() Snapshot {
	return Snapshot{
		Phase:    g.phase,
		Turn:     g.turn,
		Winner:   g.winner,
		Waiting:  g.waiting,
		Headline: g.Headline(),
	}
}
