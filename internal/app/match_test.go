package app_test

import (
	"encoding/base64"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"battleship-leap/internal/app"
	"battleship-leap/internal/codec"
	"battleship-leap/internal/command"
	"battleship-leap/internal/cpu"
	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
	"battleship-leap/internal/zk"
)

// scripted fires at a fixed list of cells in order.
type scripted struct {
	cells []game.Cell
}

func (s *scripted) Next(h cpu.History) (game.Cell, error) {
	for len(s.cells) > 0 {
		c := s.cells[0]
		s.cells = s.cells[1:]
		if !h.HasShot(c) {
			return c, nil
		}
	}
	return game.Cell{}, errors.New("script exhausted")
}

func seeded(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func cellsWhere(b *game.Board, occupied bool) []game.Cell {
	var out []game.Cell
	for i := 0; i < game.BoardCells; i++ {
		c := game.CellFromIndex(i)
		if _, _, ok := b.ShipAt(c); ok == occupied {
			out = append(out, c)
		}
	}
	return out
}

func spoken(fx []app.Effect) []string {
	var out []string
	for _, e := range fx {
		if s, ok := e.(app.Speak); ok {
			out = append(out, s.Text)
		}
	}
	return out
}

func effectOf[T app.Effect](t *testing.T, fx []app.Effect) T {
	t.Helper()
	for _, e := range fx {
		if v, ok := e.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T in %#v", zero, fx)
	return zero
}

func hasEffect[T app.Effect](fx []app.Effect) bool {
	for _, e := range fx {
		if _, ok := e.(T); ok {
			return true
		}
	}
	return false
}

func apply(t *testing.T, m *app.Match, ev app.Event) []app.Effect {
	t.Helper()
	fx, err := m.Apply(ev)
	require.NoError(t, err)
	return fx
}

func hover(c game.Cell) app.Frame { return app.Frame{Cursor: &c} }

func fireAt(t *testing.T, m *app.Match, c game.Cell) []app.Effect {
	t.Helper()
	apply(t, m, hover(c))
	return apply(t, m, app.Speech{Transcript: "Fire!"})
}

func TestSetup_SpeechAndRelease(t *testing.T) {
	m, err := app.NewMatch(app.Options{Rand: seeded(1)})
	require.NoError(t, err)
	require.Equal(t, state.Setup, m.State().Phase())

	fx := apply(t, m, app.Speech{Transcript: "start the game"})
	require.Equal(t, []string{"Deploy all of your ships before starting."}, spoken(fx))
	require.Equal(t, state.Setup, m.State().Phase())

	for i, st := range game.ShipTypes() {
		fx := apply(t, m, app.Speech{Transcript: "grab the " + st.DisplayName()})
		require.Equal(t, []string{"Acquiring " + st.DisplayName() + "."}, spoken(fx))
		require.Equal(t, st, effectOf[app.ShipGrabbed](t, fx).Ship)

		anchor := game.Cell{Row: i * 2, Col: 0}
		fx = apply(t, m, app.Frame{Cursor: &anchor, Orientation: game.Horizontal})
		placed := effectOf[app.ShipPlaced](t, fx)
		require.Equal(t, st, placed.Ship)
		require.Equal(t, anchor, placed.Anchor)
	}
	require.True(t, m.PlayerBoard().IsComplete())

	fx = apply(t, m, app.Speech{Transcript: "Start"})
	require.Equal(t, []string{"Starting a new game."}, spoken(fx))
	require.Equal(t, state.Playing, effectOf[app.PhaseChanged](t, fx).Phase)
	require.True(t, m.State().IsPlayerTurn())
	require.True(t, m.PlayerBoard().IsLocked())
}

func TestSetup_GestureMovesShip(t *testing.T) {
	m, err := app.NewMatch(app.Options{Rand: seeded(2)})
	require.NoError(t, err)

	apply(t, m, app.Speech{Transcript: "carrier"})
	a1 := game.Cell{Row: 0, Col: 0}
	apply(t, m, app.Frame{Cursor: &a1})

	// grabbing empty water does nothing
	empty := game.Cell{Row: 9, Col: 9}
	fx := apply(t, m, app.Frame{Cursor: &empty, Grabbing: true})
	require.Empty(t, fx)
	apply(t, m, app.Frame{Cursor: &empty})

	// grab the third segment, rotate, and drop it on F6
	mid := game.Cell{Row: 0, Col: 2}
	fx = apply(t, m, app.Frame{Cursor: &mid, Grabbing: true})
	require.Equal(t, app.ShipGrabbed{Ship: game.Carrier, Offset: 2}, effectOf[app.ShipGrabbed](t, fx))

	drop := game.Cell{Row: 5, Col: 5}
	require.Empty(t, apply(t, m, app.Frame{Cursor: &drop, Grabbing: true, Orientation: game.Vertical}))
	fx = apply(t, m, app.Frame{Cursor: &drop, Orientation: game.Vertical})
	placed := effectOf[app.ShipPlaced](t, fx)
	require.Equal(t, game.Cell{Row: 3, Col: 5}, placed.Anchor)
	require.Equal(t, game.Vertical, placed.Orientation)

	carrier := m.PlayerBoard().Ship(game.Carrier)
	require.Equal(t, game.CellsFor(game.Cell{Row: 3, Col: 5}, game.Vertical, 5), carrier.Cells())

	// a drop that runs off the board is refused and the ship stays put
	fx = apply(t, m, app.Frame{Cursor: &drop, Grabbing: true})
	require.True(t, hasEffect[app.ShipGrabbed](fx))
	edge := game.Cell{Row: 9, Col: 9}
	fx = apply(t, m, app.Frame{Cursor: &edge, Orientation: game.Vertical})
	rejected := effectOf[app.PlacementRejected](t, fx)
	require.Equal(t, game.Carrier, rejected.Ship)
	anchor, ok := carrier.Anchor()
	require.True(t, ok)
	require.Equal(t, game.Cell{Row: 3, Col: 5}, anchor)

	// releasing with no tile under the hand is refused too
	apply(t, m, app.Frame{Cursor: &drop, Grabbing: true})
	fx = apply(t, m, app.Frame{})
	require.Equal(t, "released off the board", effectOf[app.PlacementRejected](t, fx).Reason)

	// the releasing frame decides the orientation, not the held ones
	top := game.Cell{Row: 3, Col: 5}
	apply(t, m, app.Frame{Cursor: &top, Grabbing: true})
	low := game.Cell{Row: 7, Col: 0}
	apply(t, m, app.Frame{Cursor: &low, Grabbing: true, Orientation: game.Vertical})
	fx = apply(t, m, app.Frame{Cursor: &low, Orientation: game.Horizontal})
	placed = effectOf[app.ShipPlaced](t, fx)
	require.Equal(t, low, placed.Anchor)
	require.Equal(t, game.Horizontal, placed.Orientation)
}

func TestFire_WithoutTarget(t *testing.T) {
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(3)})
	require.NoError(t, err)
	require.Equal(t, state.Playing, m.State().Phase())

	apply(t, m, app.Frame{})
	fx := apply(t, m, app.Speech{Transcript: "fire"})
	require.Equal(t, []string{"Wow, you couldn't hit the broad side of a barn."}, spoken(fx))
	require.True(t, m.State().IsPlayerTurn())
	require.Zero(t, m.CPUBoard().ShotCount())

	// a cursor past the edge counts as no tile and never reaches the board
	off := game.Cell{Row: 10, Col: 3}
	apply(t, m, app.Frame{Cursor: &off})
	_, ok := m.Hovered()
	require.False(t, ok)
	fx = apply(t, m, app.Speech{Transcript: "fire"})
	require.Equal(t, []string{"Wow, you couldn't hit the broad side of a barn."}, spoken(fx))
	require.False(t, hasEffect[app.ShotRejected](fx))
	require.Zero(t, m.CPUBoard().ShotCount())
}

func TestCPUShot_AnnouncedOnceThenResolved(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(4), Strategy: script})
	require.NoError(t, err)
	water := cellsWhere(m.PlayerBoard(), false)
	script.cells = water[:1]

	miss := cellsWhere(m.CPUBoard(), false)[0]
	fx := fireAt(t, m, miss)
	res := effectOf[app.ShotResolved](t, fx)
	require.Equal(t, state.Player, res.Shooter)
	require.False(t, res.Result.Shot.IsHit)

	target := water[0]
	require.Equal(t, []string{
		"Miss!",
		"How about ...",
		"here? " + target.RowName() + ". " + target.ColName() + ".",
	}, spoken(fx))
	require.Equal(t, target, effectOf[app.BlinkTile](t, fx).Cell)
	require.True(t, m.State().WaitingForPlayer())

	// further input while waiting does not re-announce
	require.Empty(t, apply(t, m, hover(miss)))
	require.Empty(t, apply(t, m, app.Speech{Transcript: "fire"}))
	require.Equal(t, target, *m.Status().Pending)

	fx = apply(t, m, app.Speech{Transcript: "Miss."})
	require.True(t, hasEffect[app.ClearBlink](fx))
	res = effectOf[app.ShotResolved](t, fx)
	require.Equal(t, state.CPU, res.Shooter)
	require.Equal(t, command.ClaimMiss, res.Claim)
	require.False(t, res.Disputed)
	require.Equal(t, []string{"Ugh."}, spoken(fx))
	require.True(t, m.State().IsPlayerTurn())
	require.True(t, m.PlayerBoard().HasShot(target))
	require.Nil(t, m.Status().Pending)
}

func TestCPUShot_DisputedClaim(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(5), Strategy: script})
	require.NoError(t, err)
	script.cells = m.PlayerBoard().Ship(game.Carrier).Cells()[:1]

	fireAt(t, m, cellsWhere(m.CPUBoard(), false)[0])
	fx := apply(t, m, app.Speech{Transcript: "miss"})
	res := effectOf[app.ShotResolved](t, fx)
	require.True(t, res.Result.Shot.IsHit)
	require.True(t, res.Disputed)
	require.Equal(t, []string{"Excellent."}, spoken(fx))
	require.Equal(t, 1, m.PlayerBoard().Ship(game.Carrier).HitCount())
}

func TestFire_DuplicateRejected(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(6), Strategy: script})
	require.NoError(t, err)
	script.cells = cellsWhere(m.PlayerBoard(), false)

	miss := cellsWhere(m.CPUBoard(), false)[0]
	fireAt(t, m, miss)
	apply(t, m, app.Speech{Transcript: "miss"})
	require.True(t, m.State().IsPlayerTurn())

	fx := fireAt(t, m, miss)
	rejected := effectOf[app.ShotRejected](t, fx)
	require.Equal(t, miss, rejected.Cell)
	require.False(t, hasEffect[app.BlinkTile](fx))
	require.True(t, m.State().IsPlayerTurn())
	require.Equal(t, 1, m.CPUBoard().ShotCount())
}

func TestMatch_PlayerWins(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(7), Strategy: script})
	require.NoError(t, err)
	script.cells = cellsWhere(m.PlayerBoard(), false)

	require.Empty(t, m.Status().CPU.Ships)

	targets := cellsWhere(m.CPUBoard(), true)
	require.Len(t, targets, game.FleetCells)
	var fx []app.Effect
	for i, c := range targets {
		fx = fireAt(t, m, c)
		require.True(t, effectOf[app.ShotResolved](t, fx).Result.Shot.IsHit)
		if i < len(targets)-1 {
			apply(t, m, app.Speech{Transcript: "miss"})
		}
	}
	last := effectOf[app.ShotResolved](t, fx).Result
	require.True(t, last.GameOver)
	require.Equal(t, "You sunk my "+last.SunkShip.String()+"! You win!", spoken(fx)[0])
	require.Equal(t, app.PhaseChanged{Phase: state.End, Winner: state.Player}, effectOf[app.PhaseChanged](t, fx))
	require.False(t, hasEffect[app.BlinkTile](fx))

	st := m.Status()
	require.Equal(t, "you won!", st.Headline)
	require.Len(t, st.CPU.Ships, 5)
	for _, s := range st.CPU.Ships {
		require.True(t, s.Sunk)
	}

	// nothing moves once the game is over
	require.Empty(t, apply(t, m, app.Speech{Transcript: "fire"}))
}

func TestMatch_CPUWins(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(8), Strategy: script})
	require.NoError(t, err)
	script.cells = cellsWhere(m.PlayerBoard(), true)
	water := cellsWhere(m.CPUBoard(), false)

	var fx []app.Effect
	for i := 0; i < game.FleetCells; i++ {
		fireAt(t, m, water[i])
		require.True(t, m.State().WaitingForPlayer())
		fx = apply(t, m, app.Speech{Transcript: "hit"})
	}
	require.Equal(t, []string{"I won! Yay!"}, spoken(fx))
	require.Equal(t, app.PhaseChanged{Phase: state.End, Winner: state.CPU}, effectOf[app.PhaseChanged](t, fx))
	require.True(t, m.PlayerBoard().AllSunk())
	require.Equal(t, "game over", m.Status().Headline)
}

func TestMatch_SinkingAnnounced(t *testing.T) {
	script := &scripted{}
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(9), Strategy: script})
	require.NoError(t, err)
	script.cells = append(m.PlayerBoard().Ship(game.PatrolBoat).Cells(), cellsWhere(m.PlayerBoard(), false)...)
	water := cellsWhere(m.CPUBoard(), false)

	fireAt(t, m, water[0])
	apply(t, m, app.Speech{Transcript: "hit"})
	fireAt(t, m, water[1])
	fx := apply(t, m, app.Speech{Transcript: "you sunk my patrol boat"})
	res := effectOf[app.ShotResolved](t, fx)
	require.Equal(t, game.PatrolBoat, res.Result.SunkShip)
	require.Equal(t, command.ClaimSunk, res.Claim)
	require.False(t, res.Disputed)
	require.Equal(t, []string{"Looks like I sunk your patrol boat."}, spoken(fx))

	patrol := m.CPUBoard().Ship(game.PatrolBoat).Cells()
	fireAt(t, m, patrol[0])
	apply(t, m, app.Speech{Transcript: "miss"})
	fx = fireAt(t, m, patrol[1])
	require.Equal(t, "You sunk my patrolBoat!", spoken(fx)[0])
	require.Len(t, m.Status().CPU.Ships, 1)
}

func TestMatch_HuntStrategyLearns(t *testing.T) {
	rng := seeded(10)
	hunt := cpu.NewHunt(rng)
	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: rng, Strategy: hunt})
	require.NoError(t, err)
	water := cellsWhere(m.CPUBoard(), false)

	openHit := func() bool {
		for _, s := range m.PlayerBoard().Ships() {
			if s.HitCount() > 0 && !s.IsSunk() {
				return true
			}
		}
		return false
	}
	for i := 0; i < 60 && !openHit(); i++ {
		fireAt(t, m, water[i])
		apply(t, m, app.Speech{Transcript: "hit"})
	}
	require.True(t, openHit())
	// a hit on a floating ship stays open for the follow-up
	require.Positive(t, hunt.OpenHits())
}

func TestMatch_FairPlayProofs(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	zk.DisableLog()
	p, err := zk.Setup(t.TempDir())
	require.NoError(t, err)

	m, err := app.NewMatch(app.Options{SkipSetup: true, Rand: seeded(11), Prover: p})
	require.NoError(t, err)
	cm := m.Status().Commitment
	require.NotNil(t, cm)
	root, err := codec.ParseHex(cm.RootHex)
	require.NoError(t, err)
	vk, err := base64.StdEncoding.DecodeString(cm.VKB64)
	require.NoError(t, err)

	target := cellsWhere(m.CPUBoard(), true)[0]
	fx := fireAt(t, m, target)
	proven := effectOf[app.ShotProven](t, fx)

	res, err := app.VerifyWithRoot(vk, root, proven.Payload)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.Hit)
	require.Equal(t, target, res.Cell)

	// a proof for the cpu fleet does not open another root
	_, err = app.VerifyWithRoot(vk, big.NewInt(42), proven.Payload)
	require.ErrorIs(t, err, zk.ErrInvalidProof)
}
