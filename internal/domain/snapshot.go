package domain

// CellKind is what occupies a board cell in a snapshot.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellTail
	CellHead
	CellApple
)

// Cell is one rendered board cell. Order is the segment's distance from the
// head for snake cells and zero otherwise.
type Cell struct {
	Kind  CellKind `json:"kind" msgpack:"kind"`
	Order int      `json:"order,omitempty" msgpack:"order,omitempty"`
}

// Snapshot is a read-only view of a game for renderers. It shares no memory
// with the game it was taken from.
type Snapshot struct {
	Width     int       `json:"width" msgpack:"width"`
	Height    int       `json:"height" msgpack:"height"`
	Cells     []Cell    `json:"cells" msgpack:"cells"`
	Status    Status    `json:"status" msgpack:"status"`
	Score     int       `json:"score" msgpack:"score"`
	Length    int       `json:"length" msgpack:"length"`
	Head      Position  `json:"head" msgpack:"head"`
	Apple     *Position `json:"apple,omitempty" msgpack:"apple,omitempty"`
	Direction Direction `json:"direction" msgpack:"direction"`
	Paused    bool      `json:"paused" msgpack:"paused"`
	Ticks     int       `json:"ticks" msgpack:"ticks"`
}

// Snapshot captures the current state. Segments outside the board are not
// drawn.
func (g *Game) Snapshot() Snapshot {
	b := g.Board
	cells := make([]Cell, b.Cells())
	if g.HasApple && b.Contains(g.Apple) {
		cells[g.Apple.Y*b.Width+g.Apple.X] = Cell{Kind: CellApple}
	}
	// Walk tail to head so that nearer segments win on shared cells.
	for i := g.Snake.Len() - 1; i >= 0; i-- {
		p := g.Snake.Segment(i)
		if !b.Contains(p) {
			continue
		}
		kind := CellTail
		if i == 0 {
			kind = CellHead
		}
		cells[p.Y*b.Width+p.X] = Cell{Kind: kind, Order: i}
	}

	s := Snapshot{
		Width:     b.Width,
		Height:    b.Height,
		Cells:     cells,
		Status:    g.Status,
		Score:     g.Score(),
		Length:    g.Snake.Len(),
		Head:      g.Snake.HeadPos(),
		Direction: g.Snake.Dir,
		Paused:    g.Paused,
		Ticks:     g.Ticks,
	}
	if g.HasApple {
		apple := g.Apple
		s.Apple = &apple
	}
	return s
}

// At returns the cell at (x, y).
func (s Snapshot) At(x, y int) Cell {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return Cell{}
	}
	return s.Cells[y*s.Width+x]
}

// Rows splits the cells into Height rows of Width cells.
func (s Snapshot) Rows() [][]Cell {
	rows := make([][]Cell, s.Height)
	for y := range rows {
		rows[y] = s.Cells[y*s.Width : (y+1)*s.Width]
	}
	return rows
}
