package services

import (
	"context"
	"testing"
	"time"
)

func TestSnapshot_DerivesFigures(t *testing.T) {
	db := newServiceDB(t)
	svc := &StatsService{DB: db, Now: func() time.Time { return fixedNow }}
	ctx := context.Background()

	yesterday := fixedNow.AddDate(0, 0, -1)
	if err := svc.RecordDeletion(ctx, yesterday, 10); err != nil {
		t.Fatalf("RecordDeletion: %v", err)
	}
	if err := svc.RecordDeletion(ctx, fixedNow, 20); err != nil {
		t.Fatalf("RecordDeletion: %v", err)
	}
	if err := svc.RecordDeletion(ctx, fixedNow, 30); err != nil {
		t.Fatalf("RecordDeletion: %v", err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.TotalDeleted != 3 {
		t.Fatalf("expected total 3, got %d", snap.TotalDeleted)
	}
	if snap.DeletedToday != 2 {
		t.Fatalf("deleted_today must come from today's row only, got %d", snap.DeletedToday)
	}
	if snap.AvgDeletionSeconds != 20 {
		t.Fatalf("expected avg 20, got %v", snap.AvgDeletionSeconds)
	}
	if len(snap.Daily) != 2 {
		t.Fatalf("expected 2 daily rows, got %d", len(snap.Daily))
	}
}

func TestSnapshot_EmptyStore(t *testing.T) {
	db := newServiceDB(t)
	svc := &StatsService{DB: db, Now: func() time.Time { return fixedNow }}

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.TotalDeleted != 0 || snap.DeletedToday != 0 || snap.AvgDeletionSeconds != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
