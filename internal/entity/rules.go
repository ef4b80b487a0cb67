package entity

const BoardSize = 9

// WinCombos lists the lines in scan order: rows, then columns, then both diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// AdvanceTurn - hands the move to the other player. NoMark stays NoMark.
func AdvanceTurn(mark PlayerMark) PlayerMark {
	switch mark {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return mark
	}
}

// DetectWinner - returns the mark of the first complete line, or NoMark.
func DetectWinner(board [BoardSize]PlayerMark) PlayerMark {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return NoMark
}

// DeriveStatus - recomputes the status after a seat changed.
func DeriveStatus(occupancy Occupancy, current SessionStatus) SessionStatus {
	switch {
	case occupancy.Full() && current == StatusInitializing:
		return StatusActive
	// both players abandoned a game in progress
	case occupancy.Empty() && current == StatusActive:
		return StatusFinished
	default:
		return current
	}
}

func IsBoardFull(board [BoardSize]PlayerMark) bool {
	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}
