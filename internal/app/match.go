package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"battleship-leap/internal/codec"
	"battleship-leap/internal/command"
	"battleship-leap/internal/cpu"
	"battleship-leap/internal/game"
	"battleship-leap/internal/state"
	"battleship-leap/internal/zk"
)

type Options struct {
	// SkipSetup deploys the player's fleet at random and starts in play.
	SkipSetup         bool
	Strategy          cpu.Strategy
	Rand              game.Rand
	PlacementAttempts int
	// Prover enables fair-play proofs for every player shot.
	Prover *zk.Prover
	Logger *zap.Logger
}

// grab is the ship held by the hand. It drops with the orientation of the
// releasing frame.
type grab struct {
	ship   game.ShipType
	offset int
}

// Match is the context of one game: both boards, the phase machine, the
// cursor and the single pending cpu shot. It is not safe for concurrent use.
type Match struct {
	player   *game.Board
	cpu      *game.Board
	game     *state.GameState
	strategy cpu.Strategy
	fair     *FairPlay
	log      *zap.Logger

	hovered *game.Cell
	grab    *grab
	pending *game.Cell
}

func NewMatch(opts Options) (*Match, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cpuBoard := game.NewBoard()
	if err := cpuBoard.AutoDeploy(rng, opts.PlacementAttempts); err != nil {
		return nil, fmt.Errorf("deploy cpu fleet: %w", err)
	}
	if err := cpuBoard.Lock(); err != nil {
		return nil, err
	}

	player := game.NewBoard()
	phase := state.Setup
	if opts.SkipSetup {
		if err := player.AutoDeploy(rng, opts.PlacementAttempts); err != nil {
			return nil, fmt.Errorf("deploy player fleet: %w", err)
		}
		if err := player.Lock(); err != nil {
			return nil, err
		}
		phase = state.Playing
	}

	strategy := opts.Strategy
	if strategy == nil {
		strategy = cpu.NewRandom(rng)
	}

	m := &Match{
		player:   player,
		cpu:      cpuBoard,
		game:     state.New(phase),
		strategy: strategy,
		log:      log,
	}
	if opts.Prover != nil {
		fair, err := Commit(cpuBoard, opts.Prover)
		if err != nil {
			return nil, fmt.Errorf("commit cpu fleet: %w", err)
		}
		m.fair = fair
		log.Info("cpu fleet committed", zap.String("root", codec.FormatHex(fair.root)))
	}
	log.Info("match created", zap.Stringer("phase", phase))
	return m, nil
}

// PlayerBoard and CPUBoard expose the boards for rendering. Callers must
// not mutate them outside Apply.
func (m *Match) PlayerBoard() *game.Board { return m.player }
func (m *Match) CPUBoard() *game.Board    { return m.cpu }
func (m *Match) State() *state.GameState  { return m.game }
func (m *Match) FairPlay() *FairPlay      { return m.fair }

// Hovered is the tile under the cursor as of the last frame.
func (m *Match) Hovered() (game.Cell, bool) {
	if m.hovered == nil {
		return game.Cell{}, false
	}
	return *m.hovered, true
}

// Apply feeds one event through the match and returns what the
// presentation layer should do. Rejected actions come back as effects;
// the error is reserved for failures that leave the match unable to go on.
func (m *Match) Apply(ev Event) ([]Effect, error) {
	var (
		fx  []Effect
		err error
	)
	switch e := ev.(type) {
	case Frame:
		fx = m.frame(e)
	case Speech:
		fx, err = m.speech(e)
	default:
		return nil, fmt.Errorf("unknown event %T", ev)
	}
	if err != nil {
		return fx, err
	}
	more, err := m.announceCPUShot()
	return append(fx, more...), err
}

func (m *Match) frame(f Frame) []Effect {
	// a cursor off the grid is no tile at all
	m.hovered = nil
	if f.Cursor != nil && f.Cursor.InBounds() {
		c := *f.Cursor
		m.hovered = &c
	}
	f.Cursor = m.hovered
	if m.game.Phase() != state.Setup {
		return nil
	}

	switch {
	case m.grab == nil && f.Grabbing:
		if f.Cursor == nil {
			return nil
		}
		ship, seg, ok := m.player.ShipAt(*f.Cursor)
		if !ok {
			return nil
		}
		m.grab = &grab{ship: ship, offset: seg}
		return []Effect{ShipGrabbed{Ship: ship, Offset: seg}}

	case m.grab != nil && !f.Grabbing:
		g := m.grab
		m.grab = nil
		if f.Cursor == nil {
			return []Effect{PlacementRejected{Ship: g.ship, Reason: "released off the board"}}
		}
		dr, dc := f.Orientation.Step()
		anchor := game.Cell{Row: f.Cursor.Row - g.offset*dr, Col: f.Cursor.Col - g.offset*dc}
		if err := m.player.Place(g.ship, anchor, f.Orientation); err != nil {
			m.log.Debug("placement rejected", zap.Stringer("ship", g.ship), zap.Error(err))
			return []Effect{PlacementRejected{Ship: g.ship, Reason: err.Error()}}
		}
		return []Effect{ShipPlaced{Ship: g.ship, Anchor: anchor, Orientation: f.Orientation}}
	}
	return nil
}

func (m *Match) speech(s Speech) ([]Effect, error) {
	cmd := command.Classify(command.ContextOf(m.game), s.Transcript)
	switch cmd.Kind {
	case command.Start:
		return m.start()
	case command.Acquire:
		return m.acquire(cmd.Ship), nil
	case command.Fire:
		return m.playerShot(), nil
	case command.Respond:
		return m.cpuShot(cmd.Claim)
	}
	return nil, nil
}

func (m *Match) start() ([]Effect, error) {
	if err := m.game.StartGame(m.player); err != nil {
		if errors.Is(err, state.ErrFleetIncomplete) {
			return []Effect{Speak{Text: "Deploy all of your ships before starting."}}, nil
		}
		return nil, err
	}
	if err := m.player.Lock(); err != nil {
		return nil, err
	}
	m.grab = nil
	m.log.Info("game started")
	return []Effect{
		Speak{Text: "Starting a new game."},
		PhaseChanged{Phase: state.Playing},
	}, nil
}

func (m *Match) acquire(ship game.ShipType) []Effect {
	m.grab = &grab{ship: ship}
	return []Effect{
		Speak{Text: "Acquiring " + ship.DisplayName() + "."},
		ShipGrabbed{Ship: ship},
	}
}

func (m *Match) playerShot() []Effect {
	if m.hovered == nil {
		return []Effect{Speak{Text: "Wow, you couldn't hit the broad side of a barn."}}
	}
	target := *m.hovered
	res, err := m.cpu.FireShot(target)
	if err != nil {
		m.log.Debug("player shot rejected", zap.Stringer("cell", target), zap.Error(err))
		return []Effect{ShotRejected{Shooter: state.Player, Cell: target, Reason: err.Error()}}
	}
	m.logShot(state.Player, res)

	fx := []Effect{ShotResolved{Shooter: state.Player, Result: res}}
	if m.fair != nil {
		payload, err := m.fair.Prove(target)
		if err != nil {
			m.log.Error("prove shot", zap.Stringer("cell", target), zap.Error(err))
		} else {
			fx = append(fx, ShotProven{Payload: payload})
		}
	}

	switch {
	case res.GameOver:
		fx = append(fx, Speak{Text: "You sunk my " + res.SunkShip.String() + "! You win!"})
	case res.Sank():
		fx = append(fx, Speak{Text: "You sunk my " + res.SunkShip.String() + "!"})
	case res.Shot.IsHit:
		fx = append(fx, Speak{Text: "Hit!"})
	default:
		fx = append(fx, Speak{Text: "Miss!"})
	}
	return append(fx, m.advance(state.Player, res)...)
}

// announceCPUShot picks the cpu's target when it is the cpu's turn and no
// shot is pending. Resolution waits for the player's spoken answer.
func (m *Match) announceCPUShot() ([]Effect, error) {
	if !m.game.IsCPUTurn() || m.game.Waiting() {
		return nil, nil
	}
	target, err := m.strategy.Next(m.player)
	if err != nil {
		return nil, fmt.Errorf("cpu shot: %w", err)
	}
	if err := m.game.BeginCPUWait(); err != nil {
		return nil, err
	}
	m.pending = &target
	return []Effect{
		Speak{Text: "How about ..."},
		BlinkTile{Cell: target},
		Speak{Text: "here? " + target.RowName() + ". " + target.ColName() + "."},
	}, nil
}

// cpuShot resolves the pending cpu shot from the real board. The player's
// claim is only compared, never trusted.
func (m *Match) cpuShot(claim command.Claim) ([]Effect, error) {
	if m.pending == nil {
		return nil, errors.New("no pending cpu shot")
	}
	target := *m.pending
	res, err := m.player.FireShot(target)
	if err != nil {
		return nil, fmt.Errorf("cpu shot at %s: %w", target, err)
	}
	m.pending = nil
	if obs, ok := m.strategy.(cpu.Observer); ok {
		obs.Observe(res)
	}
	m.logShot(state.CPU, res)

	disputed := !claim.Matches(res)
	if disputed {
		m.log.Warn("player answer disagrees with board",
			zap.Stringer("cell", target),
			zap.Stringer("claim", claim),
			zap.Bool("hit", res.Shot.IsHit),
			zap.Stringer("sunk", res.SunkShip),
		)
	}

	fx := []Effect{
		ClearBlink{},
		ShotResolved{Shooter: state.CPU, Result: res, Claim: claim, Disputed: disputed},
	}
	switch {
	case res.GameOver:
		fx = append(fx, Speak{Text: "I won! Yay!"})
	case res.Sank():
		fx = append(fx, Speak{Text: "Looks like I sunk your " + res.SunkShip.DisplayName() + "."})
	case res.Shot.IsHit:
		fx = append(fx, Speak{Text: "Excellent."})
	default:
		fx = append(fx, Speak{Text: "Ugh."})
	}
	return append(fx, m.advance(state.CPU, res)...), nil
}

func (m *Match) advance(shooter state.Side, res game.ShotResult) []Effect {
	if err := m.game.Resolve(shooter, res); err != nil {
		m.log.Error("resolve shot", zap.Stringer("shooter", shooter), zap.Error(err))
		return nil
	}
	if m.game.Phase() == state.End {
		m.log.Info("game over", zap.Stringer("winner", m.game.Winner()))
		return []Effect{PhaseChanged{Phase: state.End, Winner: m.game.Winner()}}
	}
	return nil
}

func (m *Match) logShot(shooter state.Side, res game.ShotResult) {
	fields := []zap.Field{
		zap.Stringer("shooter", shooter),
		zap.Stringer("cell", res.Shot.Position),
		zap.Bool("hit", res.Shot.IsHit),
	}
	if res.Sank() {
		fields = append(fields, zap.Stringer("sunk", res.SunkShip))
	}
	m.log.Info("shot resolved", fields...)
}
