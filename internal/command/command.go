// Package command maps recognised speech to game commands. What a
// transcript means depends only on the phase and whose turn it is.
package command

import (
	"strings"

	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
)

type Kind int

const (
	None Kind = iota
	Start
	Acquire
	Fire
	Respond
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Acquire:
		return "acquire"
	case Fire:
		return "fire"
	case Respond:
		return "respond"
	default:
		return "none"
	}
}

// Claim is what the player said about the cpu's last shot.
type Claim int

const (
	ClaimUnknown Claim = iota
	ClaimMiss
	ClaimHit
	ClaimSunk
	ClaimGameOver
)

func (c Claim) String() string {
	switch c {
	case ClaimMiss:
		return "miss"
	case ClaimHit:
		return "hit"
	case ClaimSunk:
		return "sunk"
	case ClaimGameOver:
		return "game over"
	default:
		return "unknown"
	}
}

func (c Claim) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Command is a classified transcript.
type Command struct {
	Kind Kind
	// Ship is set for Acquire, and for Respond when a ship was named.
	Ship  game.ShipType
	Claim Claim
}

// Context is the slice of game state that selects the vocabulary.
type Context struct {
	Phase   state.Phase
	Turn    state.Side
	Waiting bool
}

func ContextOf(g *state.GameState) Context {
	return Context{Phase: g.Phase(), Turn: g.Turn(), Waiting: g.Waiting()}
}

var shipWords = []struct {
	word string
	ship game.ShipType
}{
	{"carrier", game.Carrier},
	{"battleship", game.Battleship},
	{"cruiser", game.Cruiser},
	{"submarine", game.Submarine},
	{"patrol", game.PatrolBoat},
}

// Classify turns a transcript into a command. Unrecognised speech yields Kind None.
func Classify(ctx Context, transcript string) Command {
	t := strings.ToLower(transcript)
	switch ctx.Phase {
	case state.Setup:
		if said(t, "start") {
			return Command{Kind: Start}
		}
		if ship := shipIn(t); ship != game.ShipUndefined {
			return Command{Kind: Acquire, Ship: ship}
		}
	case state.Playing:
		if ctx.Turn == state.Player {
			if said(t, "fire") {
				return Command{Kind: Fire}
			}
			return Command{}
		}
		if ctx.Turn == state.CPU && ctx.Waiting {
			ship := shipIn(t)
			claim := claimIn(t, ship)
			if claim != ClaimUnknown {
				return Command{Kind: Respond, Ship: ship, Claim: claim}
			}
		}
	}
	return Command{}
}

func said(t string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

func shipIn(t string) game.ShipType {
	for _, sw := range shipWords {
		if strings.Contains(t, sw.word) {
			return sw.ship
		}
	}
	return game.ShipUndefined
}

func claimIn(t string, ship game.ShipType) Claim {
	switch {
	case said(t, "game"):
		return ClaimGameOver
	case said(t, "sunk", "sank") || ship != game.ShipUndefined:
		return ClaimSunk
	case said(t, "miss"):
		return ClaimMiss
	case said(t, "hit"):
		return ClaimHit
	default:
		return ClaimUnknown
	}
}

// Matches reports whether a claim agrees with the real outcome of a shot.
func (c Claim) Matches(res game.ShotResult) bool {
	switch c {
	case ClaimMiss:
		return !res.Shot.IsHit
	case ClaimHit:
		return res.Shot.IsHit && !res.Sank()
	case ClaimSunk:
		return res.Sank() && !res.GameOver
	case ClaimGameOver:
		return res.GameOver
	default:
		return false
	}
}
