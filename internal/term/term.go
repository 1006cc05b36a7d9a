// Package term plays a local game in the terminal.
package term

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/jaminalder/codex-snake/internal/domain"
)

var (
	styleEmpty = tcell.StyleDefault.Background(tcell.NewRGBColor(0x16, 0x00, 0x16))
	styleHead  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xe0, 0xef, 0xef)).Background(tcell.NewRGBColor(0x16, 0x00, 0x16))
	styleApple = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.NewRGBColor(0x16, 0x00, 0x16))
	styleText  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleAlert = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

const (
	glyphHead  = '@'
	glyphTail  = 'o'
	glyphApple = '*'
)

// Client owns one game and the screen it is drawn on. Only the Run loop
// touches the game; the event poller just forwards events.
type Client struct {
	screen   tcell.Screen
	game     *domain.Game
	interval time.Duration
	log      *slog.Logger
}

// New returns a client for an already initialised screen.
func New(screen tcell.Screen, game *domain.Game, interval time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{screen: screen, game: game, interval: interval, log: log}
}

// Run draws and ticks the game until the player quits or ctx ends.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(events)
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	c.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !c.handle(ev) {
				return nil
			}
			c.draw()
		case <-ticker.C:
			switch out := c.game.Tick(); out {
			case domain.Collided, domain.BoardFull:
				c.log.Info("game ended", "outcome", out.String(), "score", c.game.Score())
			}
			c.draw()
		}
	}
}

// handle applies one event and reports whether the client should keep running.
func (c *Client) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
		c.game.Handle(domain.ParseKey(keyName(ev.Key(), ev.Rune())))
	case *tcell.EventResize:
		c.screen.Sync()
	}
	return true
}

// keyName turns a tcell key into the names domain.ParseKey understands.
func keyName(k tcell.Key, r rune) string {
	switch k {
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyRune:
		if r == ' ' {
			return "Space"
		}
		return string(r)
	}
	return ""
}

func (c *Client) draw() {
	snap := c.game.Snapshot()
	c.screen.Clear()

	// One cell is two columns wide so the board looks square.
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			r, style := glyph(snap.At(x, y))
			c.screen.SetContent(2*x+1, y+1, r, nil, style)
			c.screen.SetContent(2*x+2, y+1, ' ', nil, styleEmpty)
		}
	}
	drawFrame(c.screen, 0, 0, 2*snap.Width+1, snap.Height+1)

	line := snap.Height + 2
	status := fmt.Sprintf("Score: %d", snap.Score)
	if snap.Paused {
		status += "  (paused)"
	}
	drawText(c.screen, 0, line, styleText, status)
	switch snap.Status {
	case domain.Defeated:
		drawText(c.screen, 0, line+1, styleAlert, fmt.Sprintf("Defeat! Your score is: %d. Press r to restart.", snap.Score))
	case domain.Won:
		drawText(c.screen, 0, line+1, styleAlert, fmt.Sprintf("Board full! Your score is: %d. Press r to restart.", snap.Score))
	default:
		drawText(c.screen, 0, line+1, styleText, "arrows/wasd steer, space pauses, q quits")
	}
	c.screen.Show()
}

func glyph(cell domain.Cell) (rune, tcell.Style) {
	switch cell.Kind {
	case domain.CellHead:
		return glyphHead, styleHead
	case domain.CellTail:
		return glyphTail, tailStyle(cell.Order)
	case domain.CellApple:
		return glyphApple, styleApple
	default:
		return ' ', styleEmpty
	}
}

// tailStyle fades from violet near the head to dark purple at the tail.
func tailStyle(order int) tcell.Style {
	r := max(50, (150-order*3)%200)
	b := max(100, 255-order*3)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), 20, int32(b))).
		Background(tcell.NewRGBColor(0x16, 0x00, 0x16))
}

func drawFrame(s tcell.Screen, x0, y0, x1, y1 int) {
	for x := x0 + 1; x < x1; x++ {
		s.SetContent(x, y0, tcell.RuneHLine, nil, styleText)
		s.SetContent(x, y1, tcell.RuneHLine, nil, styleText)
	}
	for y := y0 + 1; y < y1; y++ {
		s.SetContent(x0, y, tcell.RuneVLine, nil, styleText)
		s.SetContent(x1, y, tcell.RuneVLine, nil, styleText)
	}
	s.SetContent(x0, y0, tcell.RuneULCorner, nil, styleText)
	s.SetContent(x1, y0, tcell.RuneURCorner, nil, styleText)
	s.SetContent(x0, y1, tcell.RuneLLCorner, nil, styleText)
	s.SetContent(x1, y1, tcell.RuneLRCorner, nil, styleText)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
