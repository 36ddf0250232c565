// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file maintains the deletion counters. Every write is
// a single-statement increment-on-upsert; there is deliberately no
// read-modify-write path here, so concurrent deletions cannot lose updates.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

// deletionStatsRowID pins the DeletionStats singleton to one primary key so
// the upsert always targets the same row.
const deletionStatsRowID = 1

// RecordDeletion bumps both counters for one deletion event: the per-day row
// keyed by the UTC day of deletedAt, and the running totals singleton. Both
// rows are created lazily on the first event.
func RecordDeletion(ctx context.Context, db *gorm.DB, deletedAt time.Time, latencySeconds int64) error {
	day := domain.DayOf(deletedAt)

	daily := &domain.DailyDeletion{
		Date:                 day,
		Count:                1,
		TotalDeletionSeconds: latencySeconds,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":                  gorm.Expr("count + 1"),
				"total_deletion_seconds": gorm.Expr("total_deletion_seconds + ?", latencySeconds),
			}),
		}).
		Create(daily).Error
	if err != nil {
		return err
	}

	stats := &domain.DeletionStats{
		ID:                   deletionStatsRowID,
		TotalDeleted:         1,
		TotalDeletionSeconds: latencySeconds,
		LastResetDate:        day,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_deleted":          gorm.Expr("total_deleted + 1"),
				"total_deletion_seconds": gorm.Expr("total_deletion_seconds + ?", latencySeconds),
				"last_reset_date":        day,
			}),
		}).
		Create(stats).Error
}

// GetDeletionStats returns the totals singleton, or a zero-valued struct when
// no deletion has ever been recorded.
func GetDeletionStats(ctx context.Context, db *gorm.DB) (*domain.DeletionStats, error) {
	var s domain.DeletionStats
	err := db.WithContext(ctx).Where("id = ?", deletionStatsRowID).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.DeletionStats{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetDailyDeletion returns the per-day row for the UTC day of t, or a
// zero-count row when nothing was deleted that day.
func GetDailyDeletion(ctx context.Context, db *gorm.DB, t time.Time) (*domain.DailyDeletion, error) {
	day := domain.DayOf(t)
	var d domain.DailyDeletion
	err := db.WithContext(ctx).Where("date = ?", day).First(&d).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.DailyDeletion{Date: day}, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDailyDeletions returns the per-day series for the last n days
// (inclusive of today), oldest first, for the dashboard chart.
func ListDailyDeletions(ctx context.Context, db *gorm.DB, now time.Time, n int) ([]domain.DailyDeletion, error) {
	since := domain.DayOf(now).AddDate(0, 0, -(n - 1))
	var out []domain.DailyDeletion
	err := db.WithContext(ctx).
		Where("date >= ?", since).
		Order("date ASC").
		Find(&out).Error
	return out, err
}
