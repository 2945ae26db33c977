package repository

import (
	"context"
	"sync"
	"time"

	"gameshelf/internal/models"
)

type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	return val.(*models.Session), nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.UserID, session)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, userID int64) error {
	r.sessions.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
