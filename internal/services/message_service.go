// Package services – MessageService
//
// This file implements MessageService, the component that owns the message
// lifecycle: the expiry sweep that retires stale work, the claim operations
// that hand batches to external workers, duplicate suppression on ingest,
// and deletion with statistics recording.
//
// The status field is the one shared mutable resource in the system. All
// mutations funnel through repo.ExpireStatuses and repo.ClaimBatch, both of
// which scope their writes to explicitly selected ID lists; this service
// never decides a status in memory and writes it back unscoped.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// batch sizes and claim counts.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageService coordinates message persistence and lifecycle transitions.
type MessageService struct {
	DB *gorm.DB

	// ExpiryWindow is how old (by message_date) a non-terminal message may
	// grow before the sweep retires it.
	ExpiryWindow time.Duration

	// ClaimDefault and ClaimCeiling bound claim batch sizes. A requested
	// limit <= 0 falls back to ClaimDefault; anything above ClaimCeiling is
	// clamped.
	ClaimDefault int
	ClaimCeiling int

	// DuplicateWindow is the ingest suppression window: the same sender
	// posting the same text inside it is rejected.
	DuplicateWindow time.Duration

	// Stats receives deletion events. Optional; nil disables recording.
	Stats *StatsService

	// Log reports non-fatal anomalies such as a stats write failing after a
	// delete already landed. Zero value is a disabled logger.
	Log zerolog.Logger

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *MessageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// clampLimit applies the default and the hard ceiling to a requested batch
// size. The ceiling holds regardless of what the caller asked for.
func (s *MessageService) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.ClaimDefault
		if limit <= 0 {
			limit = 50
		}
	}
	ceiling := s.ClaimCeiling
	if ceiling <= 0 {
		ceiling = 100
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

// ExpireStale retires every non-terminal message strictly older than the
// expiry window. A message exactly at the boundary survives. Safe to call
// from both the scheduler tick and the claim paths; re-running with the same
// clock changes nothing.
func (s *MessageService) ExpireStale(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ExpireStale")
	defer span.End()

	cutoff := s.now().Add(-s.ExpiryWindow)
	n, err := repo.ExpireStatuses(ctx, s.DB, domain.NonTerminalStatuses, cutoff)
	span.SetAttributes(attribute.Int64("expired", n))
	return n, err
}

// ClaimUnprocessed expires stale work, then atomically claims up to limit
// valid pending messages for an external worker, transitioning them to
// processing. Oldest messages are served first. An empty pool yields an
// empty slice, not an error.
func (s *MessageService) ClaimUnprocessed(ctx context.Context, limit int) ([]domain.Message, error) {
	return s.claim(ctx, "ClaimUnprocessed", domain.StatusPending, domain.StatusProcessing, limit, true)
}

// ClaimPrefilter expires stale work, then claims up to limit
// pending_prefilter messages, advancing them to pending for the prefilter
// worker.
func (s *MessageService) ClaimPrefilter(ctx context.Context, limit int) ([]domain.Message, error) {
	return s.claim(ctx, "ClaimPrefilter", domain.StatusPendingPrefilter, domain.StatusPending, limit, false)
}

func (s *MessageService) claim(ctx context.Context, op string, from, to domain.Status, limit int, validOnly bool) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(attribute.Int("limit.requested", limit)),
	)
	defer span.End()

	limit = s.clampLimit(limit)
	span.SetAttributes(attribute.Int("limit.effective", limit))

	// Expire first so a record that went stale microseconds ago is never
	// handed out.
	if _, err := s.ExpireStale(ctx); err != nil {
		return nil, err
	}

	notBefore := s.now().Add(-s.ExpiryWindow)
	claimed, err := repo.ClaimBatch(ctx, s.DB, from, to, notBefore, limit, validOnly)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("claimed", len(claimed)))
	return claimed, nil
}

// Create ingests a message, rejecting a duplicate: the same sender posting
// the same text with message_date inside the suppression window.
func (s *MessageService) Create(ctx context.Context, m *domain.Message) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("message_id", m.MessageID)),
	)
	defer span.End()

	if m.AIStatus != "" && !m.AIStatus.Valid() {
		return ErrInvalidStatus
	}

	if m.SenderID != "" && m.Text != "" {
		since := s.now().Add(-s.duplicateWindow())
		dup, err := repo.FindDuplicateMessage(ctx, s.DB, m.SenderID, m.Text, since)
		if err != nil {
			return err
		}
		if dup != nil {
			return ErrDuplicateMessage
		}
	}

	return repo.CreateMessage(ctx, s.DB, m)
}

func (s *MessageService) duplicateWindow() time.Duration {
	if s.DuplicateWindow > 0 {
		return s.DuplicateWindow
	}
	return time.Hour
}

// Get fetches one message by message_id.
func (s *MessageService) Get(ctx context.Context, messageID int64) (*domain.Message, error) {
	m, err := repo.GetMessageByMessageID(ctx, s.DB, messageID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// List returns a filtered, paginated page of messages, newest first.
func (s *MessageService) List(ctx context.Context, f repo.MessageFilter, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("page_size", pageSize)),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	return repo.ListMessages(ctx, s.DB, f, offset, pageSize)
}

// ValidSince returns is_valid messages at or after the given time, newest
// first.
func (s *MessageService) ValidSince(ctx context.Context, since time.Time) ([]domain.Message, error) {
	return repo.ListValidSince(ctx, s.DB, since)
}

// Update applies a partial update to one message. This is the only path by
// which a terminal message may change again (explicit API write); the
// scheduler never goes through here.
func (s *MessageService) Update(ctx context.Context, messageID int64, fields map[string]any) (*domain.Message, error) {
	if v, ok := fields["ai_status"]; ok {
		st, _ := v.(string)
		if !domain.Status(st).Valid() {
			return nil, ErrInvalidStatus
		}
	}
	m, err := repo.UpdateMessageByMessageID(ctx, s.DB, messageID, fields)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// DeletionResult reports the analytics for one deletion.
type DeletionResult struct {
	DeletionSeconds int64     `json:"deletion_time_seconds"`
	DeletedAt       time.Time `json:"deleted_at"`
}

// Delete removes a message and records the deletion in the statistics
// aggregator. Latency is measured from message_date to now, in whole
// seconds. The row delete runs first; stats recording is best-effort after
// it, so a delete that loses a race never inflates the counters. A stats
// write failure is logged, not returned.
func (s *MessageService) Delete(ctx context.Context, messageID int64) (*DeletionResult, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("message_id", messageID)),
	)
	defer span.End()

	m, err := repo.GetMessageByMessageID(ctx, s.DB, messageID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	deletedAt := s.now()
	latency := int64(deletedAt.Sub(m.MessageDate).Round(time.Second) / time.Second)
	if latency < 0 {
		latency = 0
	}

	if err := repo.DeleteMessageByMessageID(ctx, s.DB, messageID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	if s.Stats != nil {
		if err := s.Stats.RecordDeletion(ctx, deletedAt, latency); err != nil {
			span.RecordError(err)
			s.Log.Warn().Err(err).Int64("message_id", messageID).Msg("message deleted but stats recording failed")
		}
	}

	return &DeletionResult{DeletionSeconds: latency, DeletedAt: deletedAt}, nil
}
