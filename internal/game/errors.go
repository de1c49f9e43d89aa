package game

import "errors"

var (
	ErrIllegalAction       = errors.New("illegal action")
	ErrOutOfTurn           = errors.New("action out of turn")
	ErrGameFinished        = errors.New("game already finished")
	ErrInvalidPlayerCount  = errors.New("invalid player count")
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot")
	ErrCorruptSnapshot     = errors.New("corrupt snapshot")
)

// Recoverable reports whether err only rejects one action and leaves the game
// playable, so the actor can be asked again.
func Recoverable(err error) bool {
	return errors.Is(err, ErrIllegalAction) || errors.Is(err, ErrOutOfTurn)
}
