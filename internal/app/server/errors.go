package server

import (
	"errors"

	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/game"
)

const (
	ErrStatusValidation    = "VALIDATION_ERROR"
	ErrStatusStateConflict = "STATE_CONFLICT"
	ErrStatusNotFound      = "NOT_FOUND"
	ErrStatusAborted       = "ABORTED"
	ErrStatusInternal      = "INTERNAL_ERROR"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrStateConflict = errors.New("state conflict")
	ErrNotFound      = errors.New("not found")
	ErrAborted       = errors.New("match aborted")
	ErrPersistence   = errors.New("failed to persist")
)

var (
	ErrMatchClosed        = errors.New("match closed")
	ErrMatchFull          = errors.New("match full")
	ErrMatchNotInProgress = errors.New("match not in progress")
	ErrPlayerNotInMatch   = errors.New("player not in match")
	ErrReservedIdentity   = errors.New("fingerprint is reserved")
)

// errorStatus maps an error onto the status string sent to clients.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAborted):
		return ErrStatusAborted
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPlayerNotInMatch),
		errors.Is(err, interfaces.ErrMatchNotFound):
		return ErrStatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrReservedIdentity),
		errors.Is(err, game.ErrInvalidPayload),
		errors.Is(err, game.ErrWrongGamePayload),
		errors.Is(err, game.ErrOfferMissing),
		errors.Is(err, game.ErrUnknownGameType),
		errors.Is(err, game.ErrUnknownGameMode):
		return ErrStatusValidation
	case errors.Is(err, ErrStateConflict),
		errors.Is(err, ErrMatchClosed),
		errors.Is(err, ErrMatchFull),
		errors.Is(err, ErrMatchNotInProgress),
		errors.Is(err, game.ErrFieldAlreadySet),
		errors.Is(err, game.ErrRoundOutOfRange),
		errors.Is(err, game.ErrRoundNotOpen):
		return ErrStatusStateConflict
	}
	return ErrStatusInternal
}
