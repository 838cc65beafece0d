package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// place builds a move list, alternating p1 and p2 starting with p1.
func place(cells ...Cell) []Move {
	moves := make([]Move, len(cells))
	for i, c := range cells {
		pid := "p1"
		if i%2 == 1 {
			pid = "p2"
		}
		moves[i] = Move{PlayerID: pid, MoveNumber: i + 1, Column: c.Col, Row: c.Row}
	}
	return moves
}

func movesFor(playerID string, cells ...Cell) []Move {
	moves := make([]Move, len(cells))
	for i, c := range cells {
		moves[i] = Move{PlayerID: playerID, MoveNumber: i + 1, Column: c.Col, Row: c.Row}
	}
	return moves
}

func TestCheckClassic3Win_AllLines(t *testing.T) {
	for i, line := range classic3Lines {
		t.Run(fmt.Sprintf("line_%d", i), func(t *testing.T) {
			moves := movesFor("p1", line[0], line[1], line[2])
			assert.True(t, CheckClassic3Win(moves, "p1"))
			assert.False(t, CheckClassic3Win(moves, "p2"))
		})
	}
}

func TestCheckClassic3Win_NoLine(t *testing.T) {
	moves := movesFor("p1", Cell{0, 0}, Cell{1, 0}, Cell{0, 1}, Cell{2, 2})
	assert.False(t, CheckClassic3Win(moves, "p1"))
}

func TestCheckClassic3Win_MixedOwners(t *testing.T) {
	// (0,0) p1, (1,0) p2, (2,0) p1: row 0 is split
	moves := place(Cell{0, 0}, Cell{1, 0}, Cell{2, 0})
	assert.False(t, CheckClassic3Win(moves, "p1"))
}

func TestCheckGomokuWin(t *testing.T) {
	tests := []struct {
		name  string
		cells []Cell
		last  Cell
		want  bool
	}{
		{
			name:  "horizontal five",
			cells: []Cell{{3, 7}, {4, 7}, {5, 7}, {6, 7}, {7, 7}},
			last:  Cell{7, 7},
			want:  true,
		},
		{
			name:  "vertical five, last in the middle",
			cells: []Cell{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}},
			last:  Cell{2, 2},
			want:  true,
		},
		{
			name:  "diagonal down-right five",
			cells: []Cell{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}},
			last:  Cell{0, 0},
			want:  true,
		},
		{
			name:  "diagonal up-right five at the corner",
			cells: []Cell{{10, 14}, {11, 13}, {12, 12}, {13, 11}, {14, 10}},
			last:  Cell{14, 10},
			want:  true,
		},
		{
			name:  "four is not enough",
			cells: []Cell{{3, 7}, {4, 7}, {5, 7}, {6, 7}},
			last:  Cell{6, 7},
			want:  false,
		},
		{
			name:  "six in a row also wins",
			cells: []Cell{{0, 5}, {1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}},
			last:  Cell{5, 5},
			want:  true,
		},
		{
			name:  "gap breaks the run",
			cells: []Cell{{0, 0}, {1, 0}, {2, 0}, {4, 0}, {5, 0}},
			last:  Cell{5, 0},
			want:  false,
		},
		{
			name:  "run along the right edge",
			cells: []Cell{{14, 10}, {14, 11}, {14, 12}, {14, 13}, {14, 14}},
			last:  Cell{14, 14},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves := movesFor("p1", tt.cells...)
			last := Move{PlayerID: "p1", Column: tt.last.Col, Row: tt.last.Row}
			assert.Equal(t, tt.want, CheckGomokuWin(moves, last))
		})
	}
}

func TestCheckGomokuWin_OpponentStonesDoNotCount(t *testing.T) {
	moves := append(
		movesFor("p1", Cell{0, 0}, Cell{1, 0}, Cell{2, 0}, Cell{3, 0}),
		Move{PlayerID: "p2", Column: 4, Row: 0},
	)
	assert.False(t, CheckGomokuWin(moves, Move{PlayerID: "p2", Column: 4, Row: 0}))
	assert.False(t, CheckGomokuWin(moves, Move{PlayerID: "p1", Column: 3, Row: 0}))
}

func TestIsBoardFull(t *testing.T) {
	assert.False(t, IsBoardFull(Classic3, make([]Move, 8)))
	assert.True(t, IsBoardFull(Classic3, make([]Move, 9)))
	assert.False(t, IsBoardFull(Gomoku, make([]Move, 224)))
	assert.True(t, IsBoardFull(Gomoku, make([]Move, 225)))
}

func TestOutcome_Classic3Draw(t *testing.T) {
	// X O X
	// X O O
	// O X X
	moves := place(
		Cell{0, 0}, Cell{1, 0},
		Cell{2, 0}, Cell{1, 1},
		Cell{0, 1}, Cell{2, 1},
		Cell{1, 2}, Cell{0, 2},
		Cell{2, 2},
	)
	win, draw := Outcome(Classic3, moves, moves[len(moves)-1])
	assert.False(t, win)
	assert.True(t, draw)
}

func TestOutcome_WinOnLastCellIsNotDraw(t *testing.T) {
	// X O X
	// O X O
	// O X X   last move (2,2) completes the diagonal on a full board
	moves := place(
		Cell{0, 0}, Cell{1, 0},
		Cell{2, 0}, Cell{0, 1},
		Cell{1, 1}, Cell{2, 1},
		Cell{1, 2}, Cell{0, 2},
		Cell{2, 2},
	)
	win, draw := Outcome(Classic3, moves, moves[len(moves)-1])
	assert.True(t, win)
	assert.False(t, draw)
}

func TestOutcome_InProgress(t *testing.T) {
	moves := place(Cell{0, 0}, Cell{1, 1})
	win, draw := Outcome(Classic3, moves, moves[1])
	assert.False(t, win)
	assert.False(t, draw)
}

func TestModeBounds(t *testing.T) {
	assert.Equal(t, 3, Classic3.Size())
	assert.Equal(t, 15, Gomoku.Size())
	assert.True(t, Classic3.InBounds(2, 2))
	assert.False(t, Classic3.InBounds(3, 0))
	assert.False(t, Classic3.InBounds(0, -1))
	assert.True(t, Gomoku.InBounds(14, 14))
	assert.False(t, Gomoku.InBounds(15, 0))
	assert.False(t, Mode("chess").Valid())
}

func TestRandomInviteCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := RandomInviteCode()
		assert.True(t, IsInviteCode(code), "bad code %q", code)
	}
	assert.False(t, IsInviteCode("abc123"))
	assert.False(t, IsInviteCode("ABC12"))
}
