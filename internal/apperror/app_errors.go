package apperror

import "errors"

var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists")
	ErrAlreadyJoined = errors.New("seat is already taken")
	ErrGameFinished  = errors.New("game is already finished")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrInvalidMark   = errors.New("invalid player mark")
)
