package apperror

import "errors"

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchIsNotStarted = errors.New("match is not started")
	ErrInvalidPlayers    = errors.New("players must have distinct marks")
)
