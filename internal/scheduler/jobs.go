// Package scheduler – job wiring.
//
// This file builds the three concrete sweeps on top of the generic Job
// engine: message auto-expiry, player deactivation, and user-seen
// deactivation. Each job has its own enable flag, threshold, and interval;
// jobs never share a ticker.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/config"
	"github.com/squadfinders/bot-gateway/internal/http/middleware"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/services"
)

// NewExpiryJob sweeps non-terminal messages past the expiry window into
// expired, on the configured cadence.
func NewExpiryJob(msgs *services.MessageService, cfg config.AutoExpiryConfig, log zerolog.Logger) *Job {
	return New("auto_expiry", cfg.Interval, func(ctx context.Context) (int64, error) {
		n, err := msgs.ExpireStale(ctx)
		if n > 0 {
			middleware.ExpiredMessages.Add(float64(n))
		}
		return n, err
	}, log)
}

// NewPlayerCleanupJob deactivates players whose message_date has aged past
// the configured threshold.
func NewPlayerCleanupJob(db *gorm.DB, cfg config.CleanupConfig, log zerolog.Logger) *Job {
	return New("player_cleanup", cfg.Interval, func(ctx context.Context) (int64, error) {
		return repo.DeactivatePlayersOlderThan(ctx, db, time.Now().Add(-cfg.DisableAfter))
	}, log)
}

// NewUserSeenCleanupJob deactivates user-seen entries idle longer than the
// configured threshold (measured from updated_at).
func NewUserSeenCleanupJob(db *gorm.DB, cfg config.CleanupConfig, log zerolog.Logger) *Job {
	return New("user_seen_cleanup", cfg.Interval, func(ctx context.Context) (int64, error) {
		return repo.DeactivateUserSeenIdleSince(ctx, db, time.Now().Add(-cfg.DisableAfter))
	}, log)
}

// Set groups the jobs that were actually enabled so main and the status
// endpoint can treat them as one unit.
type Set struct {
	jobs []*Job
}

// NewSet builds the enabled jobs from configuration. Disabled jobs are not
// constructed at all; they simply have no ticker.
func NewSet(db *gorm.DB, msgs *services.MessageService, cfg config.Config, log zerolog.Logger) *Set {
	s := &Set{}
	if cfg.AutoExpiry.Enabled {
		s.jobs = append(s.jobs, NewExpiryJob(msgs, cfg.AutoExpiry, log))
	} else {
		log.Warn().Str("job", "auto_expiry").Msg("job disabled by configuration")
	}
	if cfg.PlayerCleanup.Enabled {
		s.jobs = append(s.jobs, NewPlayerCleanupJob(db, cfg.PlayerCleanup, log))
	} else {
		log.Warn().Str("job", "player_cleanup").Msg("job disabled by configuration")
	}
	if cfg.UserSeenCleanup.Enabled {
		s.jobs = append(s.jobs, NewUserSeenCleanupJob(db, cfg.UserSeenCleanup, log))
	} else {
		log.Warn().Str("job", "user_seen_cleanup").Msg("job disabled by configuration")
	}
	return s
}

// StartAll starts every job in the set.
func (s *Set) StartAll() {
	for _, j := range s.jobs {
		j.Start()
	}
}

// StopAll stops every job in the set, each with its bounded in-flight wait.
func (s *Set) StopAll() {
	for _, j := range s.jobs {
		j.Stop()
	}
}

// Statuses returns a snapshot per job, in construction order.
func (s *Set) Statuses() []Status {
	out := make([]Status, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Status())
	}
	return out
}
