package session

import "errors"

var (
	ErrInvalidUsername = errors.New("username must be 1-32 characters and not reserved")
	ErrAlreadyQueued   = errors.New("player is already waiting for a match")
	ErrAlreadyPlaying  = errors.New("player is already in a live game")
	ErrNoSuchSession   = errors.New("no such session")
	ErrNotAParticipant = errors.New("username is not a participant of this session")
	ErrTimerArmed      = errors.New("forfeit timer already armed")
	ErrShuttingDown    = errors.New("server is shutting down")

	// Nunca enviados ao cliente; a jogada é só descartada.
	ErrOutOfTurn = errors.New("not this player's turn")
	ErrStaleMove = errors.New("move does not belong to a live session")
)
