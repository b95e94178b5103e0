package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"caro-server/internal/game"
)

func boardOf(rows, cols int) game.Board {
	b := make(game.Board, rows)
	for i := range b {
		b[i] = make([]game.Mark, cols)
	}
	return b
}

func countMarks(b game.Board, mark game.Mark) int {
	n := 0
	for _, row := range b {
		for _, cell := range row {
			if cell == mark {
				n++
			}
		}
	}
	return n
}

func TestNextMovePicksAnEmptyCell(t *testing.T) {
	for i := 0; i < 100; i++ {
		b := boardOf(5, 5)
		b[2][2] = game.MarkX

		got, x, y := NextMove(b, 2, 2)

		assert.True(t, got.Contains(x, y))
		assert.Equal(t, game.MarkO, got[x][y])
		assert.NotEqual(t, 2*5+2, x*5+y, "computer overwrote the human's mark")
		assert.Equal(t, 1, countMarks(got, game.MarkO), "exactly one computer mark placed")
	}
}

func TestNextMoveTakesTheOnlyFreeCell(t *testing.T) {
	b := boardOf(3, 3)
	for x := range b {
		for y := range b[x] {
			b[x][y] = game.MarkX
		}
	}
	b[1][2] = game.None

	got, x, y := NextMove(b, 0, 0)

	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
	assert.Equal(t, game.MarkO, got[1][2])
}

func TestNextMoveOnFullBoard(t *testing.T) {
	b := boardOf(3, 3)
	for x := range b {
		for y := range b[x] {
			b[x][y] = game.MarkX
		}
	}

	_, x, y := NextMove(b, 2, 2)

	assert.Equal(t, -1, x)
	assert.Equal(t, -1, y)
}
