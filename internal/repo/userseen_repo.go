// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the UserSeen
// dedup list, including its inactivity sweep.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

// UpsertUserSeen records the seen-message list for a user, reactivating the
// entry and bumping updated_at on conflict. updated_at is the age reference
// for the cleanup sweep, so any sighting resets the inactivity clock.
func UpsertUserSeen(ctx context.Context, db *gorm.DB, u *domain.UserSeen) error {
	u.Active = true
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "message_ids", "active", "updated_at",
			}),
		}).
		Create(u).Error
}

// GetUserSeen fetches a user's seen list by user_id.
func GetUserSeen(ctx context.Context, db *gorm.DB, userID string) (*domain.UserSeen, error) {
	var u domain.UserSeen
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// DeactivateUserSeenIdleSince flips active to false for every active entry
// whose updated_at is strictly before cutoff, and returns how many rows
// changed.
func DeactivateUserSeenIdleSince(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.UserSeen{}).
		Where("active = ? AND updated_at < ?", true, cutoff).
		Update("active", false)
	return res.RowsAffected, res.Error
}
