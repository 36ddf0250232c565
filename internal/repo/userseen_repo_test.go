package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

func TestUpsertUserSeen_ReplacesAndReactivates(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	u := &domain.UserSeen{UserID: "u1", Username: "alice", MessageIDs: "1,2"}
	if err := UpsertUserSeen(ctx, db, u); err != nil {
		t.Fatalf("UpsertUserSeen: %v", err)
	}

	// Simulate deactivation by the cleanup sweep.
	if err := db.Model(&domain.UserSeen{}).Where("user_id = ?", "u1").Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if err := UpsertUserSeen(ctx, db, &domain.UserSeen{UserID: "u1", Username: "alice", MessageIDs: "1,2,3"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := GetUserSeen(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetUserSeen: %v", err)
	}
	if got.MessageIDs != "1,2,3" {
		t.Fatalf("expected replaced list, got %q", got.MessageIDs)
	}
	if !got.Active {
		t.Fatalf("upsert must reactivate the entry")
	}

	var count int64
	if err := db.Model(&domain.UserSeen{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per user, got %d", count)
	}
}

func TestGetUserSeen_NotFound(t *testing.T) {
	db := newRepoDB(t)
	if _, err := GetUserSeen(context.Background(), db, "nobody"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDeactivateUserSeenIdleSince(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := UpsertUserSeen(ctx, db, &domain.UserSeen{UserID: "idle", MessageIDs: "1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := UpsertUserSeen(ctx, db, &domain.UserSeen{UserID: "fresh", MessageIDs: "2"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Age the idle entry's updated_at directly; gorm would bump it on Update.
	past := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&domain.UserSeen{}).Where("user_id = ?", "idle").UpdateColumn("updated_at", past).Error; err != nil {
		t.Fatalf("age entry: %v", err)
	}

	n, err := DeactivateUserSeenIdleSince(ctx, db, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeactivateUserSeenIdleSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deactivated, got %d", n)
	}

	fresh, err := GetUserSeen(ctx, db, "fresh")
	if err != nil {
		t.Fatalf("GetUserSeen fresh: %v", err)
	}
	if !fresh.Active {
		t.Fatalf("fresh entry must stay active")
	}
	idle, err := GetUserSeen(ctx, db, "idle")
	if err != nil {
		t.Fatalf("GetUserSeen idle: %v", err)
	}
	if idle.Active {
		t.Fatalf("idle entry must be deactivated")
	}
}
