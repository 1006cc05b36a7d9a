package domain

// Snake stores its body as a ring buffer. Head indexes the head segment and
// the ring runs Head, Head+1, ... (mod len) from head to tail, so a plain move
// only rewrites the tail slot and shifts Head back by one.
type Snake struct {
	Body []Position
	Head int
	Dir  Direction
}

// NewSnake lays out a snake of the given length with its head at head and the
// rest of the body trailing behind, opposite to dir.
func NewSnake(head Position, length int, dir Direction) Snake {
	if length < 1 {
		length = 1
	}
	off := dir.Offset()
	body := make([]Position, length)
	for i := range body {
		body[i] = Position{X: head.X - off.X*i, Y: head.Y - off.Y*i}
	}
	return Snake{Body: body, Head: 0, Dir: dir}
}

// Len returns the number of segments including the head.
func (s *Snake) Len() int { return len(s.Body) }

// HeadPos returns the head position.
func (s *Snake) HeadPos() Position { return s.Body[s.Head] }

// Next returns the cell ahead of the head in the current direction, before
// any edge policy.
func (s *Snake) Next() Position { return Step(s.HeadPos(), s.Dir) }

// Move advances the snake so that next becomes the head. The slot before the
// head in ring order holds the tail, which is overwritten.
func (s *Snake) Move(next Position) {
	idx := s.Head - 1
	if idx < 0 {
		idx += len(s.Body)
	}
	s.Body[idx] = next
	s.Head = idx
}

// Grow inserts next as a new head, keeping every existing segment. The body
// is re-laid out with the head at index 0.
func (s *Snake) Grow(next Position) {
	body := make([]Position, len(s.Body)+1)
	body[0] = next
	n := copy(body[1:], s.Body[s.Head:])
	copy(body[1+n:], s.Body[:s.Head])
	s.Body = body
	s.Head = 0
}

// CollidesWithSelf reports whether p hits any segment other than the current
// head. The tail counts as occupied even though a move would vacate it.
func (s *Snake) CollidesWithSelf(p Position) bool {
	for i, seg := range s.Body {
		if i != s.Head && seg == p {
			return true
		}
	}
	return false
}

// Occupies reports whether any segment, head included, is at p.
func (s *Snake) Occupies(p Position) bool {
	for _, seg := range s.Body {
		if seg == p {
			return true
		}
	}
	return false
}

// Segment returns the i-th segment counting from the head (0 is the head).
func (s *Snake) Segment(i int) Position {
	return s.Body[(s.Head+i)%len(s.Body)]
}

// Segments returns the body in ring order from head to tail.
func (s *Snake) Segments() []Position {
	out := make([]Position, len(s.Body))
	for i := range out {
		out[i] = s.Segment(i)
	}
	return out
}

// Clone returns a copy that shares no memory with s.
func (s Snake) Clone() Snake {
	body := make([]Position, len(s.Body))
	copy(body, s.Body)
	s.Body = body
	return s
}
