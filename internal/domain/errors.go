package domain

import (
	"errors"
	"fmt"
)

// Error categories; every workflow error wraps exactly one of them
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrState        = errors.New("invalid state")
	ErrPersistence  = errors.New("persistence error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Specific workflow errors
var (
	ErrDuplicateRequest  = fmt.Errorf("%w: player already has an active transfer request", ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrDuplicateClub     = fmt.Errorf("%w: club name already exists", ErrConflict)
	ErrClubHasManager    = fmt.Errorf("%w: club already has a manager", ErrConflict)
	ErrRosterFull        = fmt.Errorf("%w: no free jersey number left at club", ErrConflict)
	ErrClubBusy          = fmt.Errorf("%w: club is party to an active transfer request", ErrConflict)
	ErrPlayerInTransfer  = fmt.Errorf("%w: player has an active transfer request", ErrConflict)
	ErrJerseyTaken       = fmt.Errorf("%w: jersey number already taken at club", ErrConflict)

	ErrInvalidFee = fmt.Errorf("%w: transfer fee must be greater than 0", ErrValidation)
	ErrSameClub   = fmt.Errorf("%w: cannot purchase a player from the same club", ErrValidation)

	ErrInvalidState = fmt.Errorf("%w: operation not allowed in current status", ErrState)
	ErrNotInMarket  = fmt.Errorf("%w: transfer request is not in the market", ErrState)

	ErrClubNotFound    = fmt.Errorf("club %w", ErrNotFound)
	ErrPlayerNotFound  = fmt.Errorf("player %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrManagerNotFound = fmt.Errorf("manager %w", ErrNotFound)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

// Validationf builds a validation error with a caller-facing reason
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbiddenf builds a role-gate error
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
