package bot

import (
	"math/rand/v2"

	"caro-server/internal/game"
)

// NextMove places the computer's mark on a uniformly random empty cell and
// returns the updated board with the chosen coordinates. The human's last
// move is accepted to honor the (board, last move) contract; the random
// strategy does not consult it.
//
// Empty cells are enumerated up front so the pick terminates even when the
// board is nearly full. A full board yields (-1, -1).
func NextMove(b game.Board, _, _ int) (game.Board, int, int) {
	var empty []game.Cell
	for x, row := range b {
		for y, cell := range row {
			if cell == game.None {
				empty = append(empty, game.Cell{X: x, Y: y})
			}
		}
	}

	if len(empty) == 0 {
		return b, -1, -1
	}

	pick := empty[rand.IntN(len(empty))]
	b[pick.X][pick.Y] = game.MarkO
	return b, pick.X, pick.Y
}
