package app

import (
	"battleship-leap/internal/codec"
	"battleship-leap/internal/command"
	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
)

// Event is one input delivered to a match.
type Event interface{ isEvent() }

// Frame is one gesture-tracking frame. Cursor is nil when the hand points
// at no tile; Orientation follows the hand's roll.
type Frame struct {
	Cursor      *game.Cell
	Grabbing    bool
	Orientation game.Orientation
}

// Speech is a recognised transcript.
type Speech struct {
	Transcript string
}

func (Frame) isEvent()  {}
func (Speech) isEvent() {}

// Effect is an instruction for the presentation layer.
type Effect interface{ isEffect() }

type Speak struct {
	Text string `json:"text"`
}

type BlinkTile struct {
	Cell game.Cell `json:"cell"`
}

type ClearBlink struct{}

type ShipGrabbed struct {
	Ship   game.ShipType `json:"ship"`
	Offset int           `json:"offset"`
}

type ShipPlaced struct {
	Ship        game.ShipType    `json:"ship"`
	Anchor      game.Cell        `json:"anchor"`
	Orientation game.Orientation `json:"orientation"`
}

type PlacementRejected struct {
	Ship   game.ShipType `json:"ship"`
	Reason string        `json:"reason"`
}

// ShotResolved reports an applied shot. For cpu shots Claim is what the
// player said and Disputed is set when it contradicts the board.
type ShotResolved struct {
	Shooter  state.Side      `json:"shooter"`
	Result   game.ShotResult `json:"result"`
	Claim    command.Claim   `json:"claim,omitempty"`
	Disputed bool            `json:"disputed"`
}

type ShotRejected struct {
	Shooter state.Side `json:"shooter"`
	Cell    game.Cell  `json:"cell"`
	Reason  string     `json:"reason"`
}

type PhaseChanged struct {
	Phase  state.Phase `json:"phase"`
	Winner state.Side  `json:"winner"`
}

// ShotProven carries the proof that the cpu answered a player shot truthfully.
type ShotProven struct {
	Payload codec.ShotProofPayload `json:"payload"`
}

func (Speak) isEffect()             {}
func (BlinkTile) isEffect()         {}
func (ClearBlink) isEffect()        {}
func (ShipGrabbed) isEffect()       {}
func (ShipPlaced) isEffect()        {}
func (PlacementRejected) isEffect() {}
func (ShotResolved) isEffect()      {}
func (ShotRejected) isEffect()      {}
func (PhaseChanged) isEffect()      {}
func (ShotProven) isEffect()        {}
