// Package services – UserSeenService
//
// The seen list keeps the bot from showing a user the same posting twice.
// Writes are whole-list upserts: the bot always sends the full list it holds,
// and any write reactivates the entry and resets its inactivity clock.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/repo"
)

// UserSeenService owns the per-user seen lists.
type UserSeenService struct {
	DB *gorm.DB
}

// Upsert stores or replaces a user's seen list.
func (s *UserSeenService) Upsert(ctx context.Context, u *domain.UserSeen) error {
	return repo.UpsertUserSeen(ctx, s.DB, u)
}

// Get fetches one user's seen list.
func (s *UserSeenService) Get(ctx context.Context, userID string) (*domain.UserSeen, error) {
	u, err := repo.GetUserSeen(ctx, s.DB, userID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUserSeenNotFound
	}
	return u, err
}
