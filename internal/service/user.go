package service

import (
	"context"
	"strings"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

// UpsertUser registers or updates a profile.
func (s *Service) UpsertUser(ctx context.Context, req domain.UpsertUserRequest) (*domain.User, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.ValidationError("user_id is required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return nil, domain.ValidationError("username is required")
	}
	user := &domain.User{
		UserID:      req.UserID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now(),
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a profile.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFoundError("user %s not found", userID)
	}
	return user, nil
}
