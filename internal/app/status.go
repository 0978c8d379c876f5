package app

import (
	"battleship-leap/internal/codec"
	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
)

type ShipView struct {
	Type        game.ShipType    `json:"type"`
	Orientation game.Orientation `json:"orientation"`
	Cells       []game.Cell      `json:"cells"`
	Hits        []game.Cell      `json:"hits"`
	Sunk        bool             `json:"sunk"`
}

type BoardView struct {
	Ships []ShipView  `json:"ships"`
	Shots []game.Shot `json:"shots"`
}

type Status struct {
	state.Snapshot
	Player     BoardView         `json:"player"`
	CPU        BoardView         `json:"cpu"`
	Hovered    *game.Cell        `json:"hovered,omitempty"`
	Pending    *game.Cell        `json:"pendingCpuShot,omitempty"`
	Commitment *codec.Commitment `json:"commitment,omitempty"`
}

// Status renders both boards. Cpu ships stay hidden until sunk or the game
// ends.
func (m *Match) Status() Status {
	st := Status{
		Snapshot: m.game.Snapshot(),
		Player:   boardView(m.player, true),
		CPU:      boardView(m.cpu, m.game.Phase() == state.End),
	}
	if m.hovered != nil {
		c := *m.hovered
		st.Hovered = &c
	}
	if m.pending != nil {
		c := *m.pending
		st.Pending = &c
	}
	if m.fair != nil {
		if cm, err := m.fair.Commitment(); err == nil {
			st.Commitment = &cm
		}
	}
	return st
}

func boardView(b *game.Board, reveal bool) BoardView {
	v := BoardView{Ships: []ShipView{}, Shots: b.Shots()}
	for _, s := range b.Ships() {
		if !s.IsPlaced() || (!reveal && !s.IsSunk()) {
			continue
		}
		v.Ships = append(v.Ships, ShipView{
			Type:        s.Type(),
			Orientation: s.Orientation(),
			Cells:       s.Cells(),
			Hits:        s.HitCells(),
			Sunk:        s.IsSunk(),
		})
	}
	return v
}
