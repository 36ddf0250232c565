// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Player
// model, including the age-based deactivation sweep used by the cleanup job.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

// PlayerFilter narrows ListPlayers.
type PlayerFilter struct {
	Active   *bool
	Platform string
	GameMode string
}

func (f PlayerFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.Platform != "" {
		q = q.Where("platform = ?", f.Platform)
	}
	if f.GameMode != "" {
		q = q.Where("game_mode = ?", f.GameMode)
	}
	return q
}

// CreatePlayer inserts a new player row.
func CreatePlayer(ctx context.Context, db *gorm.DB, p *domain.Player) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetPlayerByMessageID fetches a player by the message_id it was parsed from.
func GetPlayerByMessageID(ctx context.Context, db *gorm.DB, messageID int64) (*domain.Player, error) {
	var p domain.Player
	if err := db.WithContext(ctx).Where("message_id = ?", messageID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlayers returns a filtered page ordered newest-first by message_date,
// plus the total match count.
func ListPlayers(ctx context.Context, db *gorm.DB, f PlayerFilter, offset, limit int) ([]domain.Player, int64, error) {
	var total int64
	if err := f.apply(db.WithContext(ctx).Model(&domain.Player{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Player
	err := f.apply(db.WithContext(ctx)).
		Order("message_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// UpdatePlayerByMessageID applies a partial update and returns the fresh row.
// This is the only path that may re-activate a player.
func UpdatePlayerByMessageID(ctx context.Context, db *gorm.DB, messageID int64, fields map[string]any) (*domain.Player, error) {
	res := db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("message_id = ?", messageID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetPlayerByMessageID(ctx, db, messageID)
}

// DeletePlayerByMessageID removes one player row.
func DeletePlayerByMessageID(ctx context.Context, db *gorm.DB, messageID int64) error {
	res := db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&domain.Player{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivatePlayersOlderThan flips active to false for every active player
// whose message_date is strictly before cutoff, and returns how many rows
// changed. Idempotent: already-inactive rows never match.
func DeactivatePlayersOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("active = ? AND message_date < ?", true, cutoff).
		Update("active", false)
	return res.RowsAffected, res.Error
}
