package apperror

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("action is not allowed in the current game state")
	ErrTurnViolation  = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell")
	ErrAuthFailure    = errors.New("authentication failed")
	ErrRejected       = errors.New("reconnection rejected")
	ErrPlayerMismatch = errors.New("player does not match the connection")
	ErrInvalidName    = errors.New("invalid player name")
)
