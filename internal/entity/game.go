package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
)

// PlayerMark is a player's symbol on the board. NoMark marks an empty cell or a missing winner.
type PlayerMark string

const (
	NoMark  PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	EmptyCell = NoMark
)

// IsPlayable - reports whether the mark may take a seat or a cell.
func (that PlayerMark) IsPlayable() bool {
	return that == PlayerX || that == PlayerO
}

// ParseMark - converts client input into a playable mark.
func ParseMark(raw string) (PlayerMark, error) {
	mark := PlayerMark(raw)
	if !mark.IsPlayable() {
		return NoMark, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, raw)
	}

	return mark, nil
}

type SessionStatus string

const (
	StatusInitializing SessionStatus = "initializing"
	StatusActive       SessionStatus = "active"
	StatusFinished     SessionStatus = "finished"
)

// Occupancy tracks which of the two seats are filled.
type Occupancy struct {
	X bool `json:"X"`
	O bool `json:"O"`
}

func (that Occupancy) Has(mark PlayerMark) bool {
	switch mark {
	case PlayerX:
		return that.X
	case PlayerO:
		return that.O
	default:
		return false
	}
}

// With - returns a copy with the seat of mark set to filled.
func (that Occupancy) With(mark PlayerMark, filled bool) Occupancy {
	switch mark {
	case PlayerX:
		that.X = filled
	case PlayerO:
		that.O = filled
	}

	return that
}

func (that Occupancy) Full() bool {
	return that.X && that.O
}

func (that Occupancy) Empty() bool {
	return !that.X && !that.O
}

// SessionState is an immutable snapshot of one game. Transitions return a new value.
type SessionState struct {
	Status    SessionStatus         `json:"status"`
	Occupancy Occupancy             `json:"occupancy"`
	Turn      PlayerMark            `json:"turn"`
	Winner    PlayerMark            `json:"winner"`
	Board     [BoardSize]PlayerMark `json:"board"`
}

// NewSessionState - returns the state every session starts from.
func NewSessionState() SessionState {
	return SessionState{
		Status: StatusInitializing,
		Turn:   PlayerX,
		Winner: NoMark,
	}
}

func (that SessionState) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that SessionState) IsActive() bool {
	return that.Status == StatusActive
}

func (that SessionState) IsInitializing() bool {
	return that.Status == StatusInitializing
}

// IsDraw reports a full board without a winner. The session stays active in that case.
func (that SessionState) IsDraw() bool {
	return that.IsActive() && that.Winner == NoMark && IsBoardFull(that.Board)
}

// WithSeat - fills or clears the seat of mark and re-derives the status.
func (that SessionState) WithSeat(mark PlayerMark, filled bool) SessionState {
	that.Occupancy = that.Occupancy.With(mark, filled)
	that.Status = DeriveStatus(that.Occupancy, that.Status)

	return that
}

// CanMove - reports whether a move onto cell would be applied.
func (that SessionState) CanMove(cell int) bool {
	return IsValidCell(cell) &&
		that.IsActive() &&
		that.Board[cell] == EmptyCell &&
		that.Winner == NoMark
}

// ApplyMove - places mark on cell and settles the winner or the next turn.
// The caller is expected to check CanMove first.
func (that SessionState) ApplyMove(mark PlayerMark, cell int) SessionState {
	that.Board[cell] = mark

	if winner := DetectWinner(that.Board); winner != NoMark {
		that.Winner = winner
		that.Status = StatusFinished

		return that
	}

	that.Turn = AdvanceTurn(that.Turn)

	return that
}
