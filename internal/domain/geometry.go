package domain

import (
	"fmt"
	"strings"
)

// Position is a board-relative cell coordinate.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns p offset by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Direction is one of the four movement directions.
type Direction uint8

const (
	Up Direction = iota
	Right
	Left
	Down
)

var offsets = [...]Position{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Left:  {X: -1, Y: 0},
	Down:  {X: 0, Y: 1},
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool { return d <= Down }

// Offset returns the unit vector for d.
func (d Direction) Offset() Position {
	if !d.Valid() {
		return Position{}
	}
	return offsets[d]
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection parses "up", "right", "left" or "down" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "right":
		return Right, nil
	case "left":
		return Left, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Step returns the neighbour of p in direction d with no edge policy applied.
func Step(p Position, d Direction) Position {
	return p.Add(d.Offset())
}

// EdgePolicy decides what happens when the snake crosses the board edge.
type EdgePolicy uint8

const (
	// Wrap re-enters the board from the opposite edge.
	Wrap EdgePolicy = iota
	// Bounded treats leaving the board as defeat.
	Bounded
)

func (e EdgePolicy) String() string {
	switch e {
	case Wrap:
		return "wrap"
	case Bounded:
		return "bounded"
	default:
		return fmt.Sprintf("edge(%d)", uint8(e))
	}
}

// ParseEdgePolicy parses "wrap" or "bounded".
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap", "":
		return Wrap, nil
	case "bounded":
		return Bounded, nil
	}
	return 0, fmt.Errorf("unknown edge policy %q", s)
}

// Board is a fixed-size grid with one edge policy.
type Board struct {
	Width  int
	Height int
	Edge   EdgePolicy
}

// Cells returns the number of cells on the board.
func (b Board) Cells() int { return b.Width * b.Height }

// Contains reports whether p lies inside [0,Width) x [0,Height).
func (b Board) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Normalize applies the edge policy to p. Under Wrap the result is always
// on the board. Under Bounded, p is returned unchanged and ok is false when
// it lies outside the board.
func (b Board) Normalize(p Position) (Position, bool) {
	if b.Edge == Bounded {
		return p, b.Contains(p)
	}
	return Position{X: mod(p.X, b.Width), Y: mod(p.Y, b.Height)}, true
}

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
