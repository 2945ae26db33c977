package repository

import (
	"context"
	"sync/atomic"
	"time"

	"gameshelf/internal/domain"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves sessions from the primary store and
// drops to the fallback when the primary errors, retrying the primary
// after a cooldown.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, userID)
		if err == nil {
			return session, nil
		}
		r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Retry the primary after a minute of downtime.
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		session, err := r.primary.GetSession(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSession(ctx, userID)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, userID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSession(ctx, userID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.ClearSession(ctx, userID)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
