package models

import "time"

// Rental links a user to a game for a date range with an approval and
// fulfillment lifecycle. Rentals are append-only history: they change
// status but are never deleted.
type Rental struct {
	ID              int64        `json:"id"`
	UID             string       `json:"uid"`
	UserID          int64        `json:"user_id"`
	UserEmail       string       `json:"user_email"`
	GameID          int64        `json:"game_id"`
	GameName        string       `json:"game_name"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	Status          RentalStatus `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	ActualStart     *time.Time   `json:"actual_start,omitempty"`
	ActualEnd       *time.Time   `json:"actual_end,omitempty"`
	Version         int64        `json:"version"`
}

// Range returns the requested interval of the rental.
func (r *Rental) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}
