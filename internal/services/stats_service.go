// Package services – StatsService
//
// This file implements the deletion-statistics aggregator. Counters are
// increment-only and eventually consistent: the per-day table is the source
// of truth for "deleted today", and the running-totals singleton is only
// ever bumped with atomic single-statement increments. Nothing here reads a
// counter, adds one in memory, and saves it back.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultSeriesDays is how many trailing days the snapshot's chart series
// covers.
const defaultSeriesDays = 30

// StatsService maintains and reads the deletion counters.
type StatsService struct {
	DB *gorm.DB

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RecordDeletion registers one deletion event with the given latency in
// seconds. Both the per-day row and the totals singleton are upserted with
// atomic increments, created lazily on the first event.
func (s *StatsService) RecordDeletion(ctx context.Context, deletedAt time.Time, latencySeconds int64) error {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "RecordDeletion",
		trace.WithAttributes(attribute.Int64("latency_seconds", latencySeconds)),
	)
	defer span.End()

	return repo.RecordDeletion(ctx, s.DB, deletedAt, latencySeconds)
}

// StatsSnapshot is the aggregator's read model. DeletedToday comes from
// today's per-day row, never from a stored counter, so a day rollover cannot
// leave a stale figure behind.
type StatsSnapshot struct {
	TotalDeleted       int64                  `json:"total_deleted"`
	DeletedToday       int64                  `json:"deleted_today"`
	AvgDeletionSeconds float64                `json:"avg_deletion_seconds"`
	LastResetDate      time.Time              `json:"last_reset_date"`
	Daily              []domain.DailyDeletion `json:"daily"`
}

// Snapshot assembles the current statistics: running totals, today's count
// derived from the per-day table, the average latency derived from the
// totals, and the recent daily series.
func (s *StatsService) Snapshot(ctx context.Context) (*StatsSnapshot, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Snapshot")
	defer span.End()

	now := s.now()

	totals, err := repo.GetDeletionStats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	today, err := repo.GetDailyDeletion(ctx, s.DB, now)
	if err != nil {
		return nil, err
	}
	series, err := repo.ListDailyDeletions(ctx, s.DB, now, defaultSeriesDays)
	if err != nil {
		return nil, err
	}

	snap := &StatsSnapshot{
		TotalDeleted:  totals.TotalDeleted,
		DeletedToday:  today.Count,
		LastResetDate: totals.LastResetDate,
		Daily:         series,
	}
	if totals.TotalDeleted > 0 {
		snap.AvgDeletionSeconds = float64(totals.TotalDeletionSeconds) / float64(totals.TotalDeleted)
	}
	return snap, nil
}
