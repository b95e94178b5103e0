package game

// WinLength is the run length that completes a line.
const WinLength = 5

// Result reports whether the last placed mark completed a winning line, and
// which cells form it.
type Result struct {
	Won  bool
	Line []Cell
}

// Orientations are checked in fixed priority order: horizontal, vertical,
// diagonal down-right, diagonal down-left. The first qualifying orientation
// supplies the reported line; later ties are not reported.
var orientations = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// CheckWin verifies whether the mark placed at (x, y) completes a contiguous
// run of at least WinLength same-mark cells in any orientation. Only the
// neighborhood of the placed cell is inspected; the rest of the board is
// taken as-is.
func CheckWin(b Board, x, y int) Result {
	if b.At(x, y) == None {
		return Result{}
	}

	for _, o := range orientations {
		if line, ok := scanLine(b, x, y, o[0], o[1]); ok {
			return Result{Won: true, Line: line}
		}
	}
	return Result{}
}

// scanLine walks outward from (x, y) in both directions of one orientation,
// accumulating the run. A direction ends at the board edge or at any cell not
// bearing the placed mark. The run starts at 1: the placed cell itself.
func scanLine(b Board, x, y, dx, dy int) ([]Cell, bool) {
	mark := b[x][y]
	line := []Cell{{X: x, Y: y}}

	for _, sign := range [2]int{-1, 1} {
		xx, yy := x+sign*dx, y+sign*dy
		for b.Contains(xx, yy) && b[xx][yy] == mark {
			line = append(line, Cell{X: xx, Y: yy})
			xx += sign * dx
			yy += sign * dy
		}
	}

	if len(line) < WinLength {
		return nil, false
	}
	return line, true
}
