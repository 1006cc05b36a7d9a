package domain

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func newGame(t *testing.T, cfg Config, rng Rand) *Game {
	t.Helper()
	g, err := New(cfg, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func tenByTen(edge EdgePolicy) Config {
	cfg := DefaultConfig()
	cfg.Board = Board{Width: 10, Height: 10, Edge: edge}
	return cfg
}

func TestNewGameInitialState(t *testing.T) {
	g := newGame(t, DefaultConfig(), &seqRand{vals: []int{10, 5}})
	if g.Status != Running || g.Paused {
		t.Fatalf("expected running, unpaused game")
	}
	want := []Position{{0, 0}, {-1, 0}, {-2, 0}}
	if !reflect.DeepEqual(g.Snake.Segments(), want) || g.Snake.Dir != Right {
		t.Fatalf("unexpected initial snake %+v", g.Snake)
	}
	if !g.HasApple || g.Apple != (Position{10, 5}) {
		t.Fatalf("unexpected apple %v (present=%v)", g.Apple, g.HasApple)
	}
	if g.Score() != 0 {
		t.Fatalf("expected score 0, got %d", g.Score())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.Board.Width = 0 },
		func(c *Config) { c.Board.Height = -1 },
		func(c *Config) { c.Board.Edge = EdgePolicy(7) },
		func(c *Config) { c.InitialLength = 0 },
		func(c *Config) { c.StartDir = Direction(4) },
		func(c *Config) { c.Start = Position{30, 0} },
		func(c *Config) { c.Board.Width, c.Board.Height = math.MaxInt, math.MaxInt },
		func(c *Config) { c.Board.Width, c.Board.Height = 100000, 100000 },
		func(c *Config) { c.Board.Width, c.Board.Height = MaxCells+1, 1 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := New(cfg, &seqRand{}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
	edge := DefaultConfig()
	edge.Board.Width, edge.Board.Height = MaxCells, 1
	if _, err := New(edge, &seqRand{}); err != nil {
		t.Fatalf("board of exactly MaxCells should be valid: %v", err)
	}
	if _, err := New(DefaultConfig(), nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("nil rng: expected ErrInvalidConfig, got %v", err)
	}
}

func TestTickPlainMove(t *testing.T) {
	g := newGame(t, tenByTen(Wrap), &seqRand{vals: []int{5, 5}})
	if out := g.Tick(); out != Moved {
		t.Fatalf("expected Moved, got %v", out)
	}
	if g.Snake.HeadPos() != (Position{1, 0}) {
		t.Fatalf("expected head (1,0), got %v", g.Snake.HeadPos())
	}
	if g.Snake.Len() != 3 {
		t.Fatalf("expected length 3, got %d", g.Snake.Len())
	}
}

func TestTickEatsAppleAhead(t *testing.T) {
	g := newGame(t, tenByTen(Wrap), &seqRand{vals: []int{1, 0}})
	if g.Apple != (Position{1, 0}) {
		t.Fatalf("setup: apple should be right of the head, got %v", g.Apple)
	}
	if out := g.Tick(); out != Grew {
		t.Fatalf("expected Grew, got %v", out)
	}
	if g.Snake.Len() != 4 || g.Snake.HeadPos() != (Position{1, 0}) {
		t.Fatalf("expected length 4 with head (1,0), got %d at %v", g.Snake.Len(), g.Snake.HeadPos())
	}
	if !g.HasApple || g.Snake.Occupies(g.Apple) {
		t.Fatalf("new apple %v must be placed off the snake", g.Apple)
	}
	if g.Score() != 1 {
		t.Fatalf("expected score 1, got %d", g.Score())
	}
}

func TestTickWrapsAtEdge(t *testing.T) {
	cfg := tenByTen(Wrap)
	cfg.Start = Position{9, 4}
	g := newGame(t, cfg, &seqRand{vals: []int{0, 0}})
	g.Tick()
	if g.Snake.HeadPos() != (Position{0, 4}) {
		t.Fatalf("expected wrap to (0,4), got %v", g.Snake.HeadPos())
	}
	if g.Status != Running {
		t.Fatalf("wrap must not end the game")
	}
}

func TestTickBoundedEdgeDefeatsWithoutMoving(t *testing.T) {
	cfg := tenByTen(Bounded)
	cfg.Start = Position{9, 4}
	g := newGame(t, cfg, &seqRand{vals: []int{0, 0}})
	before := g.Snake.Clone()
	if out := g.Tick(); out != Collided {
		t.Fatalf("expected Collided, got %v", out)
	}
	if g.Status != Defeated {
		t.Fatalf("expected Defeated, got %v", g.Status)
	}
	if !reflect.DeepEqual(g.Snake, before) {
		t.Fatalf("body changed on defeat: %+v vs %+v", g.Snake, before)
	}
}

func TestTickSelfCollisionOnReverse(t *testing.T) {
	cfg := tenByTen(Wrap)
	cfg.Start = Position{5, 5}
	g := newGame(t, cfg, &seqRand{vals: []int{0, 0}})
	before := g.Snake.Clone()
	g.SetDirection(Left)
	if out := g.Tick(); out != Collided || g.Status != Defeated {
		t.Fatalf("reversing into the neck should defeat, got %v / %v", out, g.Status)
	}
	if !reflect.DeepEqual(g.Snake, before) {
		t.Fatalf("body changed on defeat")
	}
}

func TestTickIntoTailCellDefeats(t *testing.T) {
	g := newGame(t, tenByTen(Wrap), &seqRand{})
	g.Snake = Snake{Body: []Position{{1, 1}, {1, 2}, {2, 2}, {2, 1}}, Head: 0, Dir: Up}
	g.Apple = Position{8, 8}
	g.SetDirection(Right)
	if out := g.Tick(); out != Collided {
		t.Fatalf("moving into the current tail cell should collide, got %v", out)
	}
}

func TestTickWhenOverIsNoop(t *testing.T) {
	cfg := tenByTen(Bounded)
	cfg.Start = Position{9, 0}
	g := newGame(t, cfg, &seqRand{})
	g.Tick()
	if g.Status != Defeated {
		t.Fatalf("setup: expected defeat")
	}
	snap := g.Clone()
	for i := 0; i < 3; i++ {
		if out := g.Tick(); out != Idle {
			t.Fatalf("tick after defeat should be Idle, got %v", out)
		}
	}
	if !reflect.DeepEqual(*g, snap) {
		t.Fatalf("state changed while defeated")
	}
}

func TestPauseStopsTicks(t *testing.T) {
	g := newGame(t, tenByTen(Wrap), &seqRand{vals: []int{5, 5}})
	g.Handle(CmdPause)
	head := g.Snake.HeadPos()
	if out := g.Tick(); out != Idle || g.Snake.HeadPos() != head {
		t.Fatalf("paused game moved: %v", out)
	}
	g.Handle(CmdPause)
	if out := g.Tick(); out != Moved {
		t.Fatalf("resumed game should move, got %v", out)
	}
}

func TestDirectionAppliesOnNextTickOnly(t *testing.T) {
	cfg := tenByTen(Wrap)
	cfg.Start = Position{5, 5}
	g := newGame(t, cfg, &seqRand{})
	g.SetDirection(Down)
	if g.Snake.Dir != Right {
		t.Fatalf("direction change must wait for the tick")
	}
	g.SetDirection(Direction(42))
	if g.Pending != Down {
		t.Fatalf("invalid direction should be ignored, pending=%v", g.Pending)
	}
	g.Tick()
	if g.Snake.HeadPos() != (Position{5, 6}) || g.Snake.Dir != Down {
		t.Fatalf("expected head (5,6) heading down, got %v %v", g.Snake.HeadPos(), g.Snake.Dir)
	}
}

func TestBoardFullIsWin(t *testing.T) {
	cfg := Config{
		Board:         Board{Width: 3, Height: 1, Edge: Wrap},
		Start:         Position{1, 0},
		InitialLength: 2,
		StartDir:      Right,
	}
	g := newGame(t, cfg, &seqRand{})
	if g.Apple != (Position{2, 0}) {
		t.Fatalf("setup: expected only free cell (2,0), got %v", g.Apple)
	}
	if out := g.Tick(); out != BoardFull {
		t.Fatalf("expected BoardFull, got %v", out)
	}
	if g.Status != Won || g.HasApple || g.Snake.Len() != 3 {
		t.Fatalf("unexpected end state: status=%v apple=%v len=%d", g.Status, g.HasApple, g.Snake.Len())
	}
	if out := g.Tick(); out != Idle {
		t.Fatalf("won game must not tick, got %v", out)
	}
}

func TestRestartRestoresInitialState(t *testing.T) {
	rng := &seqRand{vals: []int{3}}
	cfg := tenByTen(Bounded)
	cfg.Start = Position{5, 0}
	g := newGame(t, cfg, rng)
	fresh := g.Clone()

	g.SetDirection(Up)
	g.Tick()
	if g.Status != Defeated {
		t.Fatalf("setup: expected defeat")
	}
	g.Restart()
	if !reflect.DeepEqual(*g, fresh) {
		t.Fatalf("restart mismatch:\n got %+v\nwant %+v", *g, fresh)
	}
}

func TestRestartAfterGrowth(t *testing.T) {
	g := newGame(t, tenByTen(Wrap), &seqRand{vals: []int{1, 0}})
	g.Tick()
	if g.Snake.Len() != 4 {
		t.Fatalf("setup: expected growth")
	}
	g.Handle(CmdRestart)
	if g.Snake.Len() != 3 || g.Snake.HeadPos() != (Position{0, 0}) || g.Snake.Dir != Right || g.Status != Running || g.Ticks != 0 {
		t.Fatalf("restart did not reset: %+v", g)
	}
}

// Drives random games and checks the invariants after every tick.
func TestRandomPlayInvariants(t *testing.T) {
	steer := rand.New(rand.NewPCG(1, 2))
	for _, edge := range []EdgePolicy{Wrap, Bounded} {
		cfg := Config{Board: Board{Width: 6, Height: 5, Edge: edge}, Start: Position{2, 2}, InitialLength: 2, StartDir: Right}
		g := newGame(t, cfg, rand.New(rand.NewPCG(3, 4)))
		for i := 0; i < 5000; i++ {
			if g.Over() {
				g.Restart()
			}
			if steer.IntN(3) == 0 {
				g.SetDirection(Direction(steer.IntN(4)))
			}
			beforeLen := g.Snake.Len()
			next, _ := g.Board.Normalize(Step(g.Snake.HeadPos(), g.Pending))
			ate := g.HasApple && next == g.Apple

			out := g.Tick()

			switch out {
			case Grew, BoardFull:
				if !ate || g.Snake.Len() != beforeLen+1 {
					t.Fatalf("tick %d: grew without apple or by %d", i, g.Snake.Len()-beforeLen)
				}
			case Moved:
				if ate || g.Snake.Len() != beforeLen {
					t.Fatalf("tick %d: moved but length changed or apple skipped", i)
				}
			case Collided:
				if g.Snake.Len() != beforeLen {
					t.Fatalf("tick %d: length changed on collision", i)
				}
			}
			if g.Status == Running {
				seen := make(map[Position]bool)
				for _, p := range g.Snake.Body {
					if seen[p] {
						t.Fatalf("tick %d: snake overlaps itself at %v", i, p)
					}
					seen[p] = true
				}
				if !g.HasApple || seen[g.Apple] {
					t.Fatalf("tick %d: apple %v missing or on snake", i, g.Apple)
				}
			}
		}
	}
}
