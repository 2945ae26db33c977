package models

import "fmt"

// RentalStatus is the rental lifecycle state. The set is closed; use
// CanTransitionTo before mutating a stored rental.
type RentalStatus string

const (
	StatusPending  RentalStatus = "pending"
	StatusApproved RentalStatus = "approved"
	StatusRented   RentalStatus = "rented"
	StatusReturned RentalStatus = "returned"
	StatusRejected RentalStatus = "rejected"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRented, StatusReturned, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo enforces the lifecycle path:
// pending -> {approved, rejected}; approved -> rented; rented -> returned.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusRented
	case StatusRented:
		return next == StatusReturned
	case StatusReturned, StatusRejected:
		return false
	default:
		return false
	}
}

// Blocking reports whether a rental in this status holds a committed claim
// on the physical copy. Only these statuses participate in conflict checks.
func (s RentalStatus) Blocking() bool {
	return s == StatusApproved || s == StatusRented
}

// GameStatus is the catalog availability tag for a game.
type GameStatus string

const (
	GameStatusNormal     GameStatus = "normal"
	GameStatusNew        GameStatus = "new"
	GameStatusShipping   GameStatus = "shipping"
	GameStatusPurchasing GameStatus = "purchasing"
	GameStatusRented     GameStatus = "rented"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusNormal, GameStatusNew, GameStatusShipping, GameStatusPurchasing, GameStatusRented:
		return true
	default:
		return false
	}
}

// Offerable reports whether a new rental request may target the game.
func (s GameStatus) Offerable() bool {
	switch s {
	case GameStatusNormal:
		return true
	case GameStatusNew, GameStatusShipping, GameStatusPurchasing, GameStatusRented:
		return false
	default:
		return false
	}
}

func ParseRentalStatus(raw string) (RentalStatus, error) {
	s := RentalStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown rental status: %q", raw)
	}
	return s, nil
}

func ParseGameStatus(raw string) (GameStatus, error) {
	s := GameStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown game status: %q", raw)
	}
	return s, nil
}

const (
	// MaxRentalDays is the longest allowed span between start and end date.
	MaxRentalDays = 8

	// DefaultRedisTTL is the lifetime of a browser session in Redis, seconds.
	DefaultRedisTTL = 24 * 60 * 60

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 128

	// RateLimitRequests and RateLimitWindow bound per-user API traffic.
	RateLimitRequests = 30
	RateLimitWindow   = 60 // seconds

	// SheetsCacheTTL is the lifetime of the roster row cache, seconds.
	SheetsCacheTTL = 60 * 60
)
