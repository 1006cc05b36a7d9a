package domain

import "errors"

// ErrBoardFull is returned by PlaceApple when the snake covers every cell.
var ErrBoardFull = errors.New("board full")

// Rand is the randomness PlaceApple needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// PlaceApple picks a free cell for the apple. It starts at a random offset
// and scans every cell row by row, wrapping around, so the work is bounded by
// one pass over the board.
func PlaceApple(rng Rand, s *Snake, b Board) (Position, error) {
	if b.Cells() <= 0 {
		return Position{}, ErrBoardFull
	}
	taken := make([]bool, b.Cells())
	for _, seg := range s.Body {
		if b.Contains(seg) {
			taken[seg.Y*b.Width+seg.X] = true
		}
	}

	xo := rng.IntN(b.Width)
	yo := rng.IntN(b.Height)
	for dy := 0; dy < b.Height; dy++ {
		y := (dy + yo) % b.Height
		for dx := 0; dx < b.Width; dx++ {
			x := (dx + xo) % b.Width
			if !taken[y*b.Width+x] {
				return Position{X: x, Y: y}, nil
			}
		}
	}
	return Position{}, ErrBoardFull
}
