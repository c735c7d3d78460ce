package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerUnavailable = errors.New("player is unavailable")
	ErrChallengeRefused  = errors.New("challenge was refused")
	ErrAlreadyOnline     = errors.New("player is already logged in")
)
