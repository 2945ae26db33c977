package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gameshelf/internal/database"
	"gameshelf/internal/domain"
	"gameshelf/internal/events"
	"gameshelf/internal/metrics"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

type RentalService struct {
	store         domain.Store
	eventBus      domain.EventPublisher
	sheetsWorker  domain.SyncWorker
	notifier      domain.Notifier
	maxRentalDays int
	logger        *zerolog.Logger
}

func NewRentalService(store domain.Store, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, notifier domain.Notifier, maxRentalDays int, logger *zerolog.Logger) *RentalService {
	if maxRentalDays <= 0 {
		maxRentalDays = models.MaxRentalDays
	}
	return &RentalService{
		store:         store,
		eventBus:      eventBus,
		sheetsWorker:  sheetsWorker,
		notifier:      notifier,
		maxRentalDays: maxRentalDays,
		logger:        logger,
	}
}

// validateRequest runs the fail-fast checks that do not need the store:
// fields present, start not in the past, end after start, span within limit.
func (s *RentalService) validateRequest(session *models.Session, gameID int64, start, end time.Time) error {
	if session == nil || session.UserID == 0 {
		return missingField("user_id")
	}
	if session.Email == "" {
		return missingField("user_email")
	}
	if gameID == 0 {
		return missingField("game_id")
	}
	if start.IsZero() {
		return missingField("start_date")
	}
	if end.IsZero() {
		return missingField("end_date")
	}

	start = models.Day(start)
	end = models.Day(end)

	if start.Before(models.Today()) {
		return invalidRange("start date is in the past")
	}
	if !end.After(start) {
		return invalidRange("end date must be after start date")
	}

	if days := (models.DateRange{Start: start, End: end}).Days(); days > s.maxRentalDays {
		return exceedsMaxDuration(days, s.maxRentalDays)
	}

	return nil
}

// Submit validates a rental request and persists it as pending. The
// overlap check runs inside the store transaction, so concurrent submits
// for the same game cannot both slip past it.
func (s *RentalService) Submit(ctx context.Context, session *models.Session, gameID int64, start, end time.Time) (*models.Rental, error) {
	if err := s.validateRequest(session, gameID, start, end); err != nil {
		return nil, err
	}

	game, err := s.store.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.Offerable() {
		return nil, database.ErrGameNotOfferable
	}

	rental := &models.Rental{
		UserID:    session.UserID,
		UserEmail: session.Email,
		GameID:    game.ID,
		GameName:  game.Name,
		StartDate: models.Day(start),
		EndDate:   models.Day(end),
	}

	if err := s.store.SubmitRental(ctx, rental); err != nil {
		var conflict *database.ConflictError
		if errors.As(err, &conflict) {
			metrics.IncConflict()
			return nil, dateConflict(models.DateRange{
				Start: conflict.ConflictStart,
				End:   conflict.ConflictEnd,
			})
		}
		return nil, err
	}

	metrics.IncSubmitted()
	s.publishEvent(events.EventRentalSubmitted, rental, "", "user", session.UserID)
	s.enqueueSync(ctx, rental, "upsert")
	if s.notifier != nil {
		s.notifier.NotifyRentalSubmitted(rental)
	}

	s.logger.Info().
		Int64("rental_id", rental.ID).
		Int64("game_id", rental.GameID).
		Int64("user_id", rental.UserID).
		Str("range", rental.Range().String()).
		Msg("rental submitted")

	return rental, nil
}

// Approve moves a pending rental to approved. From that point its dates
// block other submissions for the same game.
func (s *RentalService) Approve(ctx context.Context, rentalID, version, adminID int64) error {
	err := s.store.UpdateRentalStatusWithVersion(ctx, rentalID, version, models.StatusApproved, "")
	if err != nil {
		return err
	}
	metrics.IncTransition(string(models.StatusApproved))

	s.afterDecision(ctx, rentalID, events.EventRentalApproved, adminID)
	return nil
}

// Reject moves a pending rental to rejected. The reason is stored with the
// rental and must be given.
func (s *RentalService) Reject(ctx context.Context, rentalID, version, adminID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return missingField("reason")
	}

	err := s.store.UpdateRentalStatusWithVersion(ctx, rentalID, version, models.StatusRejected, reason)
	if err != nil {
		return err
	}
	metrics.IncTransition(string(models.StatusRejected))

	s.afterDecision(ctx, rentalID, events.EventRentalRejected, adminID)
	return nil
}

// Start records the physical handover: the approved rental becomes rented
// and the game is flagged rented, both in one transaction. The actor is
// either the renter or an admin.
func (s *RentalService) Start(ctx context.Context, rentalID, actorID int64) error {
	if err := s.store.StartRental(ctx, rentalID, time.Now()); err != nil {
		return err
	}
	metrics.IncTransition(string(models.StatusRented))

	rental, err := s.store.GetRental(ctx, rentalID)
	if err == nil {
		s.publishEvent(events.EventRentalStarted, rental, "", "actor", actorID)
		s.enqueueSync(ctx, rental, "update_status")
	}
	return nil
}

// Return records the game coming back: the rented rental becomes returned
// and the game goes back to normal, both in one transaction.
func (s *RentalService) Return(ctx context.Context, rentalID, actorID int64) error {
	if err := s.store.ReturnRental(ctx, rentalID, time.Now()); err != nil {
		return err
	}
	metrics.IncTransition(string(models.StatusReturned))

	rental, err := s.store.GetRental(ctx, rentalID)
	if err == nil {
		s.publishEvent(events.EventRentalReturned, rental, "", "actor", actorID)
		s.enqueueSync(ctx, rental, "update_status")
	}
	return nil
}

// CheckAvailability reports whether the range is free of committed claims,
// together with the rentals that block it.
func (s *RentalService) CheckAvailability(ctx context.Context, gameID int64, rng models.DateRange) (bool, []*models.Rental, error) {
	blocking, err := s.store.GetBlockingRentals(ctx, gameID, rng)
	if err != nil {
		return false, nil, err
	}
	return len(blocking) == 0, blocking, nil
}

func (s *RentalService) GetRental(ctx context.Context, id int64) (*models.Rental, error) {
	return s.store.GetRental(ctx, id)
}

func (s *RentalService) GetUserRentals(ctx context.Context, userID int64) ([]*models.Rental, error) {
	return s.store.GetUserRentals(ctx, userID)
}

func (s *RentalService) GetGameRentals(ctx context.Context, gameID int64, statuses ...models.RentalStatus) ([]*models.Rental, error) {
	return s.store.GetGameRentals(ctx, gameID, statuses...)
}

func (s *RentalService) GetRentalsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Rental, error) {
	return s.store.GetRentalsByDateRange(ctx, start, end)
}

func (s *RentalService) afterDecision(ctx context.Context, rentalID int64, eventType string, adminID int64) {
	rental, err := s.store.GetRental(ctx, rentalID)
	if err != nil {
		s.logger.Error().Err(err).Int64("rental_id", rentalID).Msg("failed to reload rental after decision")
		return
	}

	s.publishEvent(eventType, rental, rental.RejectionReason, "admin", adminID)
	s.enqueueSync(ctx, rental, "update_status")
	if s.notifier != nil {
		s.notifier.NotifyRentalDecided(rental)
	}
}

func (s *RentalService) publishEvent(eventType string, rental *models.Rental, reason, changedBy string, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.RentalEventPayload{
		RentalID:    rental.ID,
		UserID:      rental.UserID,
		UserEmail:   rental.UserEmail,
		GameID:      rental.GameID,
		GameName:    rental.GameName,
		Status:      rental.Status,
		StartDate:   rental.StartDate,
		EndDate:     rental.EndDate,
		Reason:      reason,
		ChangedBy:   changedBy,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("rental_id", rental.ID).Msg("publish event error")
	}
}

func (s *RentalService) enqueueSync(ctx context.Context, rental *models.Rental, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = string(rental.Status)
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, rental.ID, rental, status); err != nil {
		s.logger.Error().Err(err).Int64("rental_id", rental.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
