package game

// Mark is the content of a single board cell.
type Mark string

const (
	None  Mark = ""
	MarkX Mark = "X"
	MarkO Mark = "O"
)

// Board is a grid of marks indexed [x][y]. It is caller-owned: clients send
// the full grid with every move and the server never stores it between events.
type Board [][]Mark

// Cell is a single board coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rows returns the number of rows on the board.
func (b Board) Rows() int {
	return len(b)
}

// Cols returns the number of columns on the board.
func (b Board) Cols() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Contains reports whether (x, y) is inside the board.
func (b Board) Contains(x, y int) bool {
	return x >= 0 && x < b.Rows() && y >= 0 && y < b.Cols()
}

// At returns the mark at (x, y), or None for out-of-range coordinates.
func (b Board) At(x, y int) Mark {
	if !b.Contains(x, y) {
		return None
	}
	return b[x][y]
}
