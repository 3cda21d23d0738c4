package entities

import "errors"

// Domain errors
var (
	ErrInvalidSpeaker   = errors.New("invalid speaker")
	ErrInvalidTurnRange = errors.New("invalid speaker turn range")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidScore     = errors.New("score must be between 1 and 5")
)
