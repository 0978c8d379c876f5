package main

import (
	"fmt"
	"strings"

	"battleship-leap/internal/app"
	"battleship-leap/internal/game"
)

var shipMarks = map[game.ShipType]byte{
	game.Carrier:    'C',
	game.Battleship: 'B',
	game.Cruiser:    'R',
	game.Submarine:  'S',
	game.PatrolBoat: 'P',
}

// grid fills a 10x10 character board from a view: ship letters, X for hits,
// o for misses.
func grid(v app.BoardView) [game.BoardSize][game.BoardSize]byte {
	var g [game.BoardSize][game.BoardSize]byte
	for r := range g {
		for c := range g[r] {
			g[r][c] = '.'
		}
	}
	for _, s := range v.Ships {
		for _, c := range s.Cells {
			if c.InBounds() {
				g[c.Row][c.Col] = shipMarks[s.Type]
			}
		}
	}
	for _, s := range v.Shots {
		mark := byte('o')
		if s.IsHit {
			mark = 'X'
		}
		g[s.Position.Row][s.Position.Col] = mark
	}
	return g
}

// render draws the cpu's waters next to the player's fleet. The cursor is
// marked + on the cpu side and the announced cpu shot ? on the player side.
func render(st app.Status) string {
	enemy := grid(st.CPU)
	own := grid(st.Player)
	if st.Hovered != nil && enemy[st.Hovered.Row][st.Hovered.Col] == '.' {
		enemy[st.Hovered.Row][st.Hovered.Col] = '+'
	}
	if st.Pending != nil {
		own[st.Pending.Row][st.Pending.Col] = '?'
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s | turn: %s\n\n", strings.ToUpper(st.Headline), st.Turn)
	header := "   1 2 3 4 5 6 7 8 9 10"
	fmt.Fprintf(&b, "%-24s   %s\n", header, header)
	for r := 0; r < game.BoardSize; r++ {
		name := game.Cell{Row: r}.RowName()
		fmt.Fprintf(&b, "%-24s   %s\n", name+"  "+row(enemy[r]), name+"  "+row(own[r]))
	}
	fmt.Fprintf(&b, "%-24s   %s\n\n", "   enemy waters", "   your fleet")
	return b.String()
}

func row(cells [game.BoardSize]byte) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}
