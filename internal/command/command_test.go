package command_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"battleship-leap/internal/command"
	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
)

var (
	setup     = command.Context{Phase: state.Setup, Turn: state.Player}
	myTurn    = command.Context{Phase: state.Playing, Turn: state.Player}
	cpuTurn   = command.Context{Phase: state.Playing, Turn: state.CPU}
	cpuAwaits = command.Context{Phase: state.Playing, Turn: state.CPU, Waiting: true}
	ended     = command.Context{Phase: state.End, Turn: state.CPU}
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		ctx  command.Context
		in   string
		want command.Command
	}{
		{"start", setup, "let's Start the game", command.Command{Kind: command.Start}},
		{"start wins over ship", setup, "start battleship", command.Command{Kind: command.Start}},
		{"acquire battleship", setup, "get the battleship", command.Command{Kind: command.Acquire, Ship: game.Battleship}},
		{"acquire patrol", setup, "patrol boat please", command.Command{Kind: command.Acquire, Ship: game.PatrolBoat}},
		{"acquire carrier", setup, "carrier", command.Command{Kind: command.Acquire, Ship: game.Carrier}},
		{"fire ignored in setup", setup, "fire", command.Command{}},
		{"fire", myTurn, "FIRE!", command.Command{Kind: command.Fire}},
		{"start ignored while playing", myTurn, "start", command.Command{}},
		{"response before announcement", cpuTurn, "hit", command.Command{}},
		{"hit", cpuAwaits, "hit", command.Command{Kind: command.Respond, Claim: command.ClaimHit}},
		{"miss", cpuAwaits, "you missed", command.Command{Kind: command.Respond, Claim: command.ClaimMiss}},
		{"sunk", cpuAwaits, "you sunk my battleship", command.Command{Kind: command.Respond, Ship: game.Battleship, Claim: command.ClaimSunk}},
		{"sunk patrol", cpuAwaits, "patrol boat", command.Command{Kind: command.Respond, Ship: game.PatrolBoat, Claim: command.ClaimSunk}},
		{"game over", cpuAwaits, "game over", command.Command{Kind: command.Respond, Claim: command.ClaimGameOver}},
		{"chatter", cpuAwaits, "hmm let me think", command.Command{}},
		{"ended", ended, "start fire hit", command.Command{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, command.Classify(tc.ctx, tc.in))
		})
	}
}

func TestContextOf(t *testing.T) {
	g := state.New(state.Playing)
	require.NoError(t, g.NextTurn())
	require.NoError(t, g.BeginCPUWait())
	require.Equal(t, cpuAwaits, command.ContextOf(g))
}

func TestClaimMatches(t *testing.T) {
	miss := game.ShotResult{}
	hit := game.ShotResult{Shot: game.Shot{IsHit: true}}
	sunk := game.ShotResult{Shot: game.Shot{IsHit: true}, SunkShip: game.Cruiser}
	over := game.ShotResult{Shot: game.Shot{IsHit: true}, SunkShip: game.Cruiser, GameOver: true}

	require.True(t, command.ClaimMiss.Matches(miss))
	require.False(t, command.ClaimMiss.Matches(hit))
	require.True(t, command.ClaimHit.Matches(hit))
	require.False(t, command.ClaimHit.Matches(sunk))
	require.True(t, command.ClaimSunk.Matches(sunk))
	require.False(t, command.ClaimSunk.Matches(over))
	require.True(t, command.ClaimGameOver.Matches(over))
	require.False(t, command.ClaimUnknown.Matches(miss))
}
