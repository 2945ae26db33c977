package service

import (
	"context"
	"strings"

	"gameshelf/internal/config"
	"gameshelf/internal/domain"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	store     domain.Store
	config    *config.Config
	logger    *zerolog.Logger
	adminsMap map[string]bool
}

func NewUserService(store domain.Store, config *config.Config, logger *zerolog.Logger) *UserService {
	adminsMap := make(map[string]bool)
	for _, email := range config.Admins {
		adminsMap[strings.ToLower(email)] = true
	}

	return &UserService{
		store:     store,
		config:    config,
		logger:    logger,
		adminsMap: adminsMap,
	}
}

// IsAdmin checks the configured admin list by email.
func (s *UserService) IsAdmin(email string) bool {
	return s.adminsMap[strings.ToLower(email)]
}

// EnsureUser upserts the identity seen on a request and returns the stored
// row. Admin status follows config on every call.
func (s *UserService) EnsureUser(ctx context.Context, email, displayName string) (*models.User, error) {
	user := &models.User{
		Email:       email,
		DisplayName: displayName,
		IsAdmin:     s.IsAdmin(email),
	}
	if err := s.store.CreateOrUpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUserActivity(ctx context.Context, id int64) error {
	return s.store.UpdateUserActivity(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.GetAllUsers(ctx)
}

func (s *UserService) GetAdmins(ctx context.Context) ([]*models.User, error) {
	return s.store.GetAdmins(ctx)
}

func (s *UserService) SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return s.store.SetUserAdmin(ctx, id, isAdmin)
}
