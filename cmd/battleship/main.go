package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"battleship-leap/internal/app"
	"battleship-leap/internal/codec"
	"battleship-leap/internal/config"
	"battleship-leap/internal/cpu"
	"battleship-leap/internal/game"
	"battleship-leap/internal/logs"
	"battleship-leap/internal/server"
	"battleship-leap/internal/zk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "play":
		cmdPlay()
	case "serve":
		cmdServe()
	case "keys":
		cmdKeys()
	case "verify":
		cmdVerify()
	default:
		usage()
	}
}

func usage() {
	fmt.Println(`Battleship CLI

Commands:
  play   --config conf.yml [--proofs ./proofs]
  serve  --config conf.yml [--addr 127.0.0.1:8080]
  keys   --config conf.yml [--keys ./keys]
  verify --vk ./keys/shot.vk --root ROOT_HEX --proof proof.json [--row R --col C]

Settings come from the config file and BATTLESHIP_* environment variables,
for example BATTLESHIP_GAME_SKIP_SETUP=true.`)
}

// bootstrap loads config and builds the logger every command shares.
func bootstrap(path string) (*config.Loader, config.Config, *zap.Logger, zap.AtomicLevel) {
	loader, cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	l, level := logs.New("battleship", cfg.Log)
	zk.SetLogOutput(zap.NewStdLog(l.Named("gnark")).Writer())
	return loader, cfg, l, level
}

// matchFactory builds matches from the game and fairplay settings. The
// prover is set up once and shared.
func matchFactory(cfg config.Config, l *zap.Logger) (server.MatchFactory, error) {
	var prover *zk.Prover
	if cfg.FairPlay.Enabled {
		start := time.Now()
		p, err := zk.Setup(cfg.FairPlay.KeysDir)
		if err != nil {
			return nil, fmt.Errorf("fair play setup: %w", err)
		}
		l.Info("fair play ready", zap.String("keys", cfg.FairPlay.KeysDir), zap.Duration("took", time.Since(start)))
		prover = p
	}

	var n atomic.Int64
	return func() (*app.Match, error) {
		seed := cfg.Game.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed + n.Add(1) - 1))
		strategy, err := cpu.New(cfg.Game.Strategy, rng)
		if err != nil {
			return nil, err
		}
		return app.NewMatch(app.Options{
			SkipSetup:         cfg.Game.SkipSetup,
			Strategy:          strategy,
			Rand:              rng,
			PlacementAttempts: cfg.Game.PlacementAttempts,
			Prover:            prover,
			Logger:            l.Named("match"),
		})
	}, nil
}

func cmdServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	_ = fs.Parse(os.Args[2:])

	loader, cfg, l, level := bootstrap(*cfgPath)
	defer l.Sync()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	loader.Watch(func(c config.Config) {
		level.SetLevel(logs.ParseLevel(c.Log.Level))
		l.Info("config reloaded", zap.String("level", c.Log.Level))
	}, func(err error) {
		l.Warn("config reload rejected", zap.Error(err))
	})

	factory, err := matchFactory(cfg, l)
	if err != nil {
		l.Fatal("build match", zap.Error(err))
	}
	srv, err := server.New(factory, cfg.Server.AllowedOrigins, l.Named("server"))
	if err != nil {
		l.Fatal("start match", zap.Error(err))
	}

	hs := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srv.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdown)
	}()

	l.Info("serving", zap.String("addr", cfg.Server.Addr))
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatal("serve", zap.Error(err))
	}
}

func cmdPlay() {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	proofs := fs.String("proofs", "", "directory to write shot proofs to")
	_ = fs.Parse(os.Args[2:])

	_, cfg, l, _ := bootstrap(*cfgPath)
	defer l.Sync()

	factory, err := matchFactory(cfg, l)
	if err != nil {
		l.Fatal("build match", zap.Error(err))
	}
	m, err := factory()
	if err != nil {
		l.Fatal("start match", zap.Error(err))
	}
	if fair := m.FairPlay(); fair != nil {
		cm, err := fair.Commitment()
		if err != nil {
			l.Fatal("commitment", zap.Error(err))
		}
		fmt.Println("cpu fleet root:", cm.RootHex)
		if *proofs != "" {
			if err := os.MkdirAll(*proofs, 0o755); err != nil {
				l.Fatal("proofs dir", zap.Error(err))
			}
			if err := saveJSON(filepath.Join(*proofs, "commitment.json"), cm); err != nil {
				l.Fatal("write commitment", zap.Error(err))
			}
		}
	}

	t := &terminal{match: m, out: os.Stdout, proofs: *proofs, log: l}
	fmt.Fprint(t.out, render(m.Status()))
	fmt.Fprintln(t.out, `type "help" for commands`)
	if err := t.run(os.Stdin); err != nil {
		l.Fatal("play", zap.Error(err))
	}
}

// terminal stands in for the hand tracker and the speech recogniser. It
// keeps the hand state between lines and turns each line into one event.
type terminal struct {
	match  *app.Match
	out    io.Writer
	proofs string
	log    *zap.Logger

	cursor      *game.Cell
	grabbing    bool
	orientation game.Orientation
}

const playHelp = `  hover B5     point at a tile        hover off   point away from the board
  grab         close the hand          drop        open the hand
  rotate       turn the held ship      board       show both boards
  say <words>  speak, e.g. "say carrier", "say start", "say fire", "say miss"
  quit`

func (t *terminal) run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		verb, rest, _ := strings.Cut(line, " ")
		var ev app.Event
		switch strings.ToLower(verb) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(t.out, playHelp)
			continue
		case "board":
			fmt.Fprint(t.out, render(t.match.Status()))
			continue
		case "hover":
			if strings.EqualFold(rest, "off") {
				t.cursor = nil
			} else {
				c, err := game.ParseCell(rest)
				if err != nil {
					fmt.Fprintln(t.out, err)
					continue
				}
				t.cursor = &c
			}
			ev = t.frame()
		case "grab":
			t.grabbing = true
			ev = t.frame()
		case "drop":
			t.grabbing = false
			ev = t.frame()
		case "rotate":
			if t.orientation == game.Horizontal {
				t.orientation = game.Vertical
			} else {
				t.orientation = game.Horizontal
			}
			ev = t.frame()
		case "say":
			ev = app.Speech{Transcript: rest}
		default:
			fmt.Fprintf(t.out, "unknown command %q\n", verb)
			continue
		}

		fx, err := t.match.Apply(ev)
		t.show(fx)
		if err != nil {
			return err
		}
	}
}

func (t *terminal) frame() app.Frame {
	f := app.Frame{Grabbing: t.grabbing, Orientation: t.orientation}
	if t.cursor != nil {
		c := *t.cursor
		f.Cursor = &c
	}
	return f
}

func (t *terminal) show(fx []app.Effect) {
	redraw := false
	for _, e := range fx {
		switch e := e.(type) {
		case app.Speak:
			fmt.Fprintf(t.out, "  %q\n", e.Text)
		case app.BlinkTile:
			fmt.Fprintf(t.out, "  [blinking %s]\n", e.Cell)
		case app.ShipGrabbed:
			fmt.Fprintf(t.out, "  holding %s\n", e.Ship.DisplayName())
		case app.ShipPlaced:
			fmt.Fprintf(t.out, "  %s placed at %s, %s\n", e.Ship.DisplayName(), e.Anchor, e.Orientation)
			redraw = true
		case app.PlacementRejected:
			fmt.Fprintf(t.out, "  cannot place %s: %s\n", e.Ship.DisplayName(), e.Reason)
		case app.ShotRejected:
			fmt.Fprintf(t.out, "  shot at %s rejected: %s\n", e.Cell, e.Reason)
		case app.ShotResolved:
			if e.Disputed {
				fmt.Fprintf(t.out, "  (the board says otherwise about %s)\n", e.Result.Shot.Position)
			}
			redraw = true
		case app.ShotProven:
			t.saveProof(e.Payload)
		case app.PhaseChanged:
			fmt.Fprintf(t.out, "  -- %s --\n", t.match.Status().Headline)
			redraw = true
		}
	}
	if redraw {
		fmt.Fprint(t.out, render(t.match.Status()))
	}
}

func (t *terminal) saveProof(p codec.ShotProofPayload) {
	if t.proofs == "" {
		return
	}
	name := fmt.Sprintf("proof-%d-%d.json", p.Public.Row, p.Public.Col)
	if err := saveJSON(filepath.Join(t.proofs, name), &p); err != nil {
		t.log.Error("write proof", zap.Error(err))
		return
	}
	fmt.Fprintf(t.out, "  proof written to %s\n", name)
}

func cmdKeys() {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	keys := fs.String("keys", "", "keys directory (overrides fairplay.keys_dir)")
	_ = fs.Parse(os.Args[2:])

	_, cfg, l, _ := bootstrap(*cfgPath)
	defer l.Sync()
	dir := cfg.FairPlay.KeysDir
	if *keys != "" {
		dir = *keys
	}

	p, err := zk.Setup(dir)
	if err != nil {
		l.Fatal("keys", zap.Error(err))
	}
	vk, err := p.VerifyingKeyBytes()
	if err != nil {
		l.Fatal("keys", zap.Error(err))
	}
	fmt.Println("✓ keys in", dir)
	fmt.Println("VK:", base64.StdEncoding.EncodeToString(vk))
}

func cmdVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	vkPath := fs.String("vk", "./keys/"+zk.VKFile, "verifying key file")
	rootHex := fs.String("root", "", "salted root hex, 0x-prefixed")
	proofPath := fs.String("proof", "proof.json", "proof payload json")
	row := fs.Int("row", -1, "expected row [0..9], optional")
	col := fs.Int("col", -1, "expected col [0..9], optional")
	_ = fs.Parse(os.Args[2:])

	l, _ := logs.New("battleship", config.LogConfig{Level: "warn"})
	defer l.Sync()

	if *rootHex == "" {
		l.Fatal("--root required")
	}
	root, err := codec.ParseHex(*rootHex)
	if err != nil {
		l.Fatal("invalid root", zap.Error(err))
	}
	var payload codec.ShotProofPayload
	if err := loadJSON(*proofPath, &payload); err != nil {
		l.Fatal("read proof", zap.Error(err))
	}
	if *row >= 0 || *col >= 0 {
		want := game.Cell{Row: *row, Col: *col}
		if !want.InBounds() {
			l.Fatal("row/col out of range")
		}
		if payload.Public.Row != uint8(*row) || payload.Public.Col != uint8(*col) {
			l.Fatal("proof is for another cell",
				zap.Uint8("row", payload.Public.Row), zap.Uint8("col", payload.Public.Col),
				zap.Int("wantRow", *row), zap.Int("wantCol", *col))
		}
	}

	vk, err := os.ReadFile(*vkPath)
	if err != nil {
		l.Fatal("read verifying key", zap.Error(err))
	}
	res, err := app.VerifyWithRoot(vk, root, payload)
	if err != nil {
		l.Fatal("verify", zap.Error(err))
	}
	outcome := "MISS"
	if res.Hit {
		outcome = "HIT"
	}
	fmt.Printf("%s at %s\n", outcome, res.Cell)
}

func saveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
