// game/logic.go
package game

// Cell is a board coordinate.
type Cell struct {
	Col int
	Row int
}

// classic3Lines are the 8 winning lines of a 3x3 board: 3 rows, 3 columns, 2 diagonals.
var classic3Lines = [8][3]Cell{
	{{0, 0}, {1, 0}, {2, 0}}, // rows
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {0, 1}, {0, 2}}, // columns
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}}, // diagonals
	{{2, 0}, {1, 1}, {0, 2}},
}

// gomokuAxes are the four scan directions; each is walked both ways.
var gomokuAxes = [4][2]int{
	{1, 0},  // horizontal
	{0, 1},  // vertical
	{1, 1},  // diagonal down-right
	{1, -1}, // diagonal up-right
}

const gomokuRun = 5

// cellsOf collects the cells held by playerID.
func cellsOf(moves []Move, playerID string) map[Cell]bool {
	cells := make(map[Cell]bool, len(moves)/2+1)
	for _, m := range moves {
		if m.PlayerID == playerID {
			cells[Cell{m.Column, m.Row}] = true
		}
	}
	return cells
}

// CheckClassic3Win reports whether playerID holds a complete 3x3 line.
func CheckClassic3Win(moves []Move, playerID string) bool {
	cells := cellsOf(moves, playerID)
	if len(cells) < 3 {
		return false
	}
	for _, line := range classic3Lines {
		if cells[line[0]] && cells[line[1]] && cells[line[2]] {
			return true
		}
	}
	return false
}

// CheckGomokuWin reports whether the stone placed by last completes a run of
// five or more along any axis through it.
func CheckGomokuWin(moves []Move, last Move) bool {
	return longestRun(cellsOf(moves, last.PlayerID), Cell{last.Column, last.Row}, Gomoku.Size()) >= gomokuRun
}

// longestRun returns the longest contiguous run through from, over all axes.
func longestRun(cells map[Cell]bool, from Cell, size int) int {
	if !cells[from] {
		return 0
	}
	best := 0
	for _, d := range gomokuAxes {
		count := 1

		// forward
		c, r := from.Col+d[0], from.Row+d[1]
		for inBoard(c, r, size) && cells[Cell{c, r}] {
			count++
			c += d[0]
			r += d[1]
		}

		// backward
		c, r = from.Col-d[0], from.Row-d[1]
		for inBoard(c, r, size) && cells[Cell{c, r}] {
			count++
			c -= d[0]
			r -= d[1]
		}

		if count > best {
			best = count
		}
	}
	return best
}

func inBoard(c, r, size int) bool {
	return c >= 0 && c < size && r >= 0 && r < size
}

// IsBoardFull reports whether every cell of the mode's board holds a move.
func IsBoardFull(mode Mode, moves []Move) bool {
	n := mode.Size()
	return len(moves) >= n*n
}

// Outcome evaluates the board after last was appended to moves.
func Outcome(mode Mode, moves []Move, last Move) (win, draw bool) {
	switch mode {
	case Classic3:
		win = CheckClassic3Win(moves, last.PlayerID)
	case Gomoku:
		win = CheckGomokuWin(moves, last)
	}
	if win {
		return true, false
	}
	return false, IsBoardFull(mode, moves)
}
