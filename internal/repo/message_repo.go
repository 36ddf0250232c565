// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the Message primitives, including the
// two operations the whole lifecycle engine rests on: the batched expiry
// sweep and the ID-scoped claim.
//
// Mutation discipline: ai_status is only ever written by ExpireStatuses
// (status-set-wide, cutoff-bounded) or ClaimBatch (ID-scoped, guarded,
// transactional). Nothing here reads a status, decides in memory, and writes
// it back without re-scoping the write to the exact ID list it selected.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

// expiryBatchSize bounds each expiry UPDATE so a large backlog never holds a
// long-lived write lock.
const expiryBatchSize = 1000

// MessageFilter narrows ListMessages. Zero values mean "no constraint";
// the boolean filters use pointers so false is distinguishable from unset.
type MessageFilter struct {
	GroupUsername  string
	SenderUsername string
	IsValid        *bool
	IsLFG          *bool
	AIStatus       domain.Status
}

func (f MessageFilter) apply(q *gorm.DB) *gorm.DB {
	if f.GroupUsername != "" {
		q = q.Where("group_username = ?", f.GroupUsername)
	}
	if f.SenderUsername != "" {
		q = q.Where("sender_username = ?", f.SenderUsername)
	}
	if f.IsValid != nil {
		q = q.Where("is_valid = ?", *f.IsValid)
	}
	if f.IsLFG != nil {
		q = q.Where("is_lfg = ?", *f.IsLFG)
	}
	if f.AIStatus != "" {
		q = q.Where("ai_status = ?", f.AIStatus)
	}
	return q
}

// CreateMessage inserts a new message row.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.AIStatus == "" {
		m.AIStatus = domain.StatusPendingPrefilter
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMessageByMessageID fetches a message by its Telegram message_id.
func GetMessageByMessageID(ctx context.Context, db *gorm.DB, messageID int64) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("message_id = ?", messageID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a filtered page ordered newest-first by message_date,
// plus the total match count for pagination metadata.
func ListMessages(ctx context.Context, db *gorm.DB, f MessageFilter, offset, limit int) ([]domain.Message, int64, error) {
	var total int64
	base := f.apply(db.WithContext(ctx).Model(&domain.Message{}))
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Message
	err := f.apply(db.WithContext(ctx)).
		Order("message_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// ListValidSince returns is_valid messages with message_date >= since,
// newest first.
func ListValidSince(ctx context.Context, db *gorm.DB, since time.Time) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("is_valid = ? AND message_date >= ?", true, since).
		Order("message_date DESC").
		Find(&out).Error
	return out, err
}

// FindDuplicateMessage looks for the same sender posting the same text with
// message_date inside the suppression window (message_date >= since). Returns
// nil when no duplicate exists.
func FindDuplicateMessage(ctx context.Context, db *gorm.DB, senderID, text string, since time.Time) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("sender_id = ? AND message = ? AND message_date >= ?", senderID, text, since).
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMessageByMessageID applies a partial update and returns the fresh row.
func UpdateMessageByMessageID(ctx context.Context, db *gorm.DB, messageID int64, fields map[string]any) (*domain.Message, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("message_id = ?", messageID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetMessageByMessageID(ctx, db, messageID)
}

// DeleteMessageByMessageID removes one message row.
func DeleteMessageByMessageID(ctx context.Context, db *gorm.DB, messageID int64) error {
	res := db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&domain.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExpireStatuses transitions every message whose ai_status is in statuses and
// whose message_date is strictly before cutoff to expired. A message exactly
// at the cutoff is NOT expired.
//
// Work proceeds in bounded batches: select up to expiryBatchSize matching
// IDs, update that exact ID list, repeat until a batch comes back short.
// Re-running with the same cutoff is a no-op: expired rows no longer match.
func ExpireStatuses(ctx context.Context, db *gorm.DB, statuses []domain.Status, cutoff time.Time) (int64, error) {
	var total int64
	for {
		var ids []uint
		err := db.WithContext(ctx).
			Model(&domain.Message{}).
			Where("ai_status IN ? AND message_date < ?", statuses, cutoff).
			Order("id").
			Limit(expiryBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		res := db.WithContext(ctx).
			Model(&domain.Message{}).
			Where("id IN ? AND ai_status IN ?", ids, statuses).
			Update("ai_status", domain.StatusExpired)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected

		// A short batch means the backlog is exhausted.
		if len(ids) < expiryBatchSize {
			return total, nil
		}
	}
}

// ClaimBatch atomically reserves up to limit messages in fromStatus whose
// message_date is at or after notBefore, moving them to toStatus. The
// returned records carry toStatus in memory, oldest message_date first.
//
// Selection and mutation run inside one write transaction and the UPDATE is
// scoped to the selected ID list with an ai_status = fromStatus guard, never
// a blind "update top N". Two concurrent claims for the same fromStatus
// therefore produce disjoint result sets.
func ClaimBatch(ctx context.Context, db *gorm.DB, fromStatus, toStatus domain.Status, notBefore time.Time, limit int, validOnly bool) ([]domain.Message, error) {
	var claimed []domain.Message
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("ai_status = ? AND message_date >= ?", fromStatus, notBefore)
		if validOnly {
			q = q.Where("is_valid = ?", true)
		}
		if err := q.Order("message_date ASC, id ASC").Limit(limit).Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uint, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
		}
		res := tx.Model(&domain.Message{}).
			Where("id IN ? AND ai_status = ?", ids, fromStatus).
			Update("ai_status", toStatus)
		if res.Error != nil {
			return res.Error
		}
		for i := range claimed {
			claimed[i].AIStatus = toStatus
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		claimed = []domain.Message{}
	}
	return claimed, nil
}

// CountMessagesByStatus is a small introspection helper for the status
// endpoint and tests.
func CountMessagesByStatus(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("ai_status = ?", status).
		Count(&n).Error
	return n, err
}
