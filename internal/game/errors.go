package game

import "errors"

var (
	ErrTurnInProgress  = errors.New("a turn is already being processed")
	ErrGameOver        = errors.New("the game is over")
	ErrSessionClosed   = errors.New("session has ended")
	ErrSessionNotFound = errors.New("session not found")
	ErrSaveNotFound    = errors.New("save not found")
	ErrEmptyAction     = errors.New("action is empty")
	ErrEmptyCountry    = errors.New("country name is empty")

	// ErrSaveCorrupt marks a save document that failed structural validation.
	// A corrupt save is never adopted as session state.
	ErrSaveCorrupt = errors.New("save file is corrupt")
)
