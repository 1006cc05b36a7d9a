package term

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/jaminalder/codex-snake/internal/domain"
)

type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

func newTestClient(t *testing.T) (*Client, tcell.SimulationScreen, *domain.Game) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 24)
	cfg := domain.Config{
		Board:         domain.Board{Width: 10, Height: 6, Edge: domain.Wrap},
		Start:         domain.Position{X: 4, Y: 2},
		InitialLength: 3,
		StartDir:      domain.Right,
	}
	g, err := domain.New(cfg, zeroRand{})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	return New(screen, g, time.Hour, nil), screen, g
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestDrawPlacesHeadTailAndApple(t *testing.T) {
	c, screen, _ := newTestClient(t)
	defer screen.Fini()
	c.draw()

	// Board cell (x, y) is drawn at column 2x+1, row y+1.
	if r := runeAt(screen, 2*4+1, 3); r != glyphHead {
		t.Fatalf("expected head glyph, got %q", r)
	}
	if r := runeAt(screen, 2*3+1, 3); r != glyphTail {
		t.Fatalf("expected tail glyph, got %q", r)
	}
	if r := runeAt(screen, 1, 1); r != glyphApple {
		t.Fatalf("expected apple at board (0,0), got %q", r)
	}
	if r := runeAt(screen, 0, 0); r != tcell.RuneULCorner {
		t.Fatalf("expected frame corner, got %q", r)
	}
}

func TestDrawShowsDefeat(t *testing.T) {
	c, screen, g := newTestClient(t)
	defer screen.Fini()
	g.SetDirection(domain.Left)
	g.Tick()
	c.draw()
	line := 6 + 3
	got := make([]rune, 7)
	for i := range got {
		got[i] = runeAt(screen, i, line)
	}
	if string(got) != "Defeat!" {
		t.Fatalf("expected defeat message, got %q", string(got))
	}
}

func TestHandleKeys(t *testing.T) {
	c, screen, g := newTestClient(t)
	defer screen.Fini()

	if !c.handle(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)) {
		t.Fatalf("arrow key should not quit")
	}
	if g.Pending != domain.Down {
		t.Fatalf("expected pending down, got %v", g.Pending)
	}
	c.handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if !g.Paused {
		t.Fatalf("space should pause")
	}
	c.handle(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if g.Paused || g.Pending != domain.Right {
		t.Fatalf("r should restart the game")
	}
	if c.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatalf("escape should quit")
	}
	if c.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatalf("q should quit")
	}
}

func TestKeyName(t *testing.T) {
	cases := []struct {
		k    tcell.Key
		r    rune
		want string
	}{
		{tcell.KeyUp, 0, "ArrowUp"},
		{tcell.KeyLeft, 0, "ArrowLeft"},
		{tcell.KeyRune, 'w', "w"},
		{tcell.KeyRune, ' ', "Space"},
		{tcell.KeyEnter, 0, ""},
	}
	for _, c := range cases {
		if got := keyName(c.k, c.r); got != c.want {
			t.Fatalf("keyName(%v, %q) = %q, want %q", c.k, c.r, got, c.want)
		}
	}
}

func TestRunStopsOnQuitKey(t *testing.T) {
	c, screen, g := newTestClient(t)
	defer screen.Fini()

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on q")
	}
	if g.Pending != domain.Down {
		t.Fatalf("key before quit should have been applied, pending=%v", g.Pending)
	}
}

func TestRunTicksGame(t *testing.T) {
	c, screen, g := newTestClient(t)
	defer screen.Fini()
	c.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Ticks == 0 {
		t.Fatalf("expected the game to tick")
	}
}
