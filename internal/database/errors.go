package database

import (
	"errors"
	"fmt"
	"time"

	"gameshelf/internal/models"
)

var (
	ErrConcurrentModification = errors.New("rental was modified concurrently")
	ErrGameNotFound           = errors.New("game not found")
	ErrGameNotOfferable       = errors.New("game is not offerable")
	ErrRentalNotFound         = errors.New("rental not found")
	ErrInvalidTransition      = errors.New("invalid rental status transition")
	ErrDateConflict           = errors.New("dates conflict with an existing rental")
	ErrStartDateInFuture      = errors.New("rental start date is in the future")
)

// ConflictError reports the blocking rental's interval so the caller can
// present the exact bounds that caused the rejection.
type ConflictError struct {
	GameID        int64
	RentalID      int64
	ConflictStart time.Time
	ConflictEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("game %d is already booked %s..%s",
		e.GameID,
		models.FormatDate(e.ConflictStart),
		models.FormatDate(e.ConflictEnd))
}

func (e *ConflictError) Unwrap() error { return ErrDateConflict }
