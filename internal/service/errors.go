package service

import (
	"fmt"

	"gameshelf/internal/models"
)

type ValidationKind string

const (
	KindMissingField       ValidationKind = "missing_field"
	KindInvalidRange       ValidationKind = "invalid_range"
	KindExceedsMaxDuration ValidationKind = "exceeds_max_duration"
	KindDateConflict       ValidationKind = "date_conflict"
)

// ValidationError is a rejected submission. Field is set for missing-field
// errors, Conflict for date-conflict errors so callers can show the exact
// blocking interval.
type ValidationError struct {
	Kind     ValidationKind
	Field    string
	Message  string
	Conflict *models.DateRange
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Kind: KindMissingField, Field: field}
}

func invalidRange(message string) *ValidationError {
	return &ValidationError{Kind: KindInvalidRange, Message: message}
}

func exceedsMaxDuration(days, limit int) *ValidationError {
	return &ValidationError{
		Kind:    KindExceedsMaxDuration,
		Message: fmt.Sprintf("requested %d days, limit is %d", days, limit),
	}
}

func dateConflict(conflict models.DateRange) *ValidationError {
	return &ValidationError{
		Kind:     KindDateConflict,
		Message:  fmt.Sprintf("dates conflict with existing rental %s", conflict),
		Conflict: &conflict,
	}
}
