package service

import (
	"context"
	"time"

	"gameshelf/internal/domain"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

type SessionService struct {
	sessionRepo domain.SessionRepository
	logger      *zerolog.Logger
}

func NewSessionService(sessionRepo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

func (s *SessionService) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get session")
		return nil, err
	}
	return session, nil
}

// EnsureSession returns the stored session or creates a fresh one for the
// authenticated identity.
func (s *SessionService) EnsureSession(ctx context.Context, userID int64, email string, isAdmin bool) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		// Admin status follows config, not the cached copy.
		session.IsAdmin = isAdmin
		return session, nil
	}

	session = &models.Session{
		UserID:   userID,
		Email:    email,
		IsAdmin:  isAdmin,
		IssuedAt: time.Now(),
		Data:     make(map[string]interface{}),
	}
	if err := s.sessionRepo.SetSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) SetSession(ctx context.Context, session *models.Session) error {
	return s.sessionRepo.SetSession(ctx, session)
}

func (s *SessionService) ClearSession(ctx context.Context, userID int64) error {
	return s.sessionRepo.ClearSession(ctx, userID)
}

// UpdateSessionData sets one key in the session scratch data.
func (s *SessionService) UpdateSessionData(ctx context.Context, userID int64, key string, value interface{}) error {
	session, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		session = &models.Session{
			UserID:   userID,
			IssuedAt: time.Now(),
			Data:     make(map[string]interface{}),
		}
	}
	if session.Data == nil {
		session.Data = make(map[string]interface{})
	}
	session.Data[key] = value

	return s.sessionRepo.SetSession(ctx, session)
}

// CheckRateLimit reports whether the user is within the submission budget.
func (s *SessionService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.sessionRepo.CheckRateLimit(ctx, userID, limit, window)
}
