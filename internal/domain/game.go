package domain

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a game.
type Status uint8

const (
	Running Status = iota
	Defeated
	// Won means the snake filled the board and no apple could be placed.
	Won
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Defeated:
		return "defeated"
	case Won:
		return "won"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "running":
		*s = Running
	case "defeated":
		*s = Defeated
	case "won":
		*s = Won
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// Outcome describes what a single Tick did.
type Outcome uint8

const (
	// Idle: the game was paused or already over.
	Idle Outcome = iota
	Moved
	Grew
	Collided
	BoardFull
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Moved:
		return "moved"
	case Grew:
		return "grew"
	case Collided:
		return "collided"
	case BoardFull:
		return "board_full"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// ErrInvalidConfig is returned by New for unusable configurations.
var ErrInvalidConfig = errors.New("invalid game config")

// MaxCells bounds Width*Height so a board and its snapshot fit in memory.
const MaxCells = 1 << 20

// Config fixes the board and the initial snake of a game.
type Config struct {
	Board         Board
	Start         Position
	InitialLength int
	StartDir      Direction
}

// DefaultConfig matches the classic layout: a 30x10 wrapping board and a
// three-segment snake at (0,0) heading right.
func DefaultConfig() Config {
	return Config{
		Board:         Board{Width: 30, Height: 10, Edge: Wrap},
		Start:         Position{X: 0, Y: 0},
		InitialLength: 3,
		StartDir:      Right,
	}
}

// Validate checks that a game can be built from c.
func (c Config) Validate() error {
	switch {
	case c.Board.Width < 1 || c.Board.Height < 1:
		return fmt.Errorf("%w: board %dx%d", ErrInvalidConfig, c.Board.Width, c.Board.Height)
	case c.Board.Width > MaxCells/c.Board.Height:
		return fmt.Errorf("%w: board %dx%d exceeds %d cells", ErrInvalidConfig, c.Board.Width, c.Board.Height, MaxCells)
	case c.Board.Edge != Wrap && c.Board.Edge != Bounded:
		return fmt.Errorf("%w: edge policy %v", ErrInvalidConfig, c.Board.Edge)
	case c.InitialLength < 1:
		return fmt.Errorf("%w: initial length %d", ErrInvalidConfig, c.InitialLength)
	case !c.StartDir.Valid():
		return fmt.Errorf("%w: start direction %v", ErrInvalidConfig, c.StartDir)
	case !c.Board.Contains(c.Start):
		return fmt.Errorf("%w: start %v outside board", ErrInvalidConfig, c.Start)
	}
	return nil
}

// Game is the whole mutable state of one snake game. It is not safe for
// concurrent use; one driver owns it and calls Tick, SetDirection and
// Restart in turn.
type Game struct {
	Board    Board
	Snake    Snake
	Apple    Position
	HasApple bool
	Status   Status
	// Pending is the direction the next tick will use.
	Pending Direction
	Paused  bool
	Ticks   int

	cfg Config
	rng Rand
}

// New validates cfg and returns a game in its initial state.
func New(cfg Config, rng Rand) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}
	g := initial(cfg, rng)
	return &g, nil
}

func initial(cfg Config, rng Rand) Game {
	g := Game{
		Board:   cfg.Board,
		Snake:   NewSnake(cfg.Start, cfg.InitialLength, cfg.StartDir),
		Status:  Running,
		Pending: cfg.StartDir,
		cfg:     cfg,
		rng:     rng,
	}
	if apple, err := PlaceApple(rng, &g.Snake, g.Board); err == nil {
		g.Apple, g.HasApple = apple, true
	} else {
		g.Status = Won
	}
	return g
}

// Config returns the configuration the game was built from.
func (g *Game) Config() Config { return g.cfg }

// Score is the number of apples eaten since the last restart.
func (g *Game) Score() int { return g.Snake.Len() - g.cfg.InitialLength }

// Over reports whether the game reached a terminal state.
func (g *Game) Over() bool { return g.Status != Running }

// SetDirection records the direction for the next tick. Invalid directions
// are ignored. Reversing onto the neck is allowed and collides.
func (g *Game) SetDirection(d Direction) {
	if d.Valid() {
		g.Pending = d
	}
}

// TogglePause pauses or resumes a running game.
func (g *Game) TogglePause() {
	if g.Status == Running {
		g.Paused = !g.Paused
	}
}

// Restart replaces the whole state with a fresh game.
func (g *Game) Restart() {
	*g = initial(g.cfg, g.rng)
}

// Handle applies a key command.
func (g *Game) Handle(cmd Command) {
	if d, ok := cmd.Direction(); ok {
		g.SetDirection(d)
		return
	}
	switch cmd {
	case CmdPause:
		g.TogglePause()
	case CmdRestart:
		g.Restart()
	}
}

// Tick advances the game by one step. Collisions are checked against the
// body as it is before the move; on collision the snake stays where it was.
func (g *Game) Tick() Outcome {
	if g.Status != Running || g.Paused {
		return Idle
	}
	next, ok := g.Board.Normalize(Step(g.Snake.HeadPos(), g.Pending))
	if !ok || g.Snake.CollidesWithSelf(next) {
		g.Status = Defeated
		return Collided
	}

	g.Snake.Dir = g.Pending
	g.Ticks++
	if g.HasApple && next == g.Apple {
		g.Snake.Grow(next)
		apple, err := PlaceApple(g.rng, &g.Snake, g.Board)
		if errors.Is(err, ErrBoardFull) {
			g.HasApple = false
			g.Status = Won
			return BoardFull
		}
		g.Apple = apple
		return Grew
	}
	g.Snake.Move(next)
	return Moved
}

// Clone returns a deep copy of the game state. The copy shares the random
// source and must not be ticked concurrently with the original.
func (g *Game) Clone() Game {
	cp := *g
	cp.Snake = g.Snake.Clone()
	return cp
}
