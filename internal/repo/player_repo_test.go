package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

func seedPlayer(t *testing.T, db *gorm.DB, messageID int64, date time.Time, active bool) {
	t.Helper()
	p := &domain.Player{
		MessageID:   messageID,
		MessageDate: date,
		GroupID:     "g1",
		SenderID:    fmt.Sprintf("s%d", messageID),
		Platform:    "PC",
		Rank:        "unknown",
		GameMode:    "unknown",
		Active:      active,
	}
	if err := CreatePlayer(context.Background(), db, p); err != nil {
		t.Fatalf("seed player %d: %v", messageID, err)
	}
}

func TestDeactivatePlayersOlderThan(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedPlayer(t, db, 1, cutoff.Add(-time.Hour), true)  // old + active: deactivates
	seedPlayer(t, db, 2, cutoff.Add(-time.Hour), false) // already inactive: untouched
	seedPlayer(t, db, 3, cutoff, true)                  // exactly at cutoff: survives
	seedPlayer(t, db, 4, cutoff.Add(time.Hour), true)   // fresh: survives

	n, err := DeactivatePlayersOlderThan(ctx, db, cutoff)
	if err != nil {
		t.Fatalf("DeactivatePlayersOlderThan: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deactivated, got %d", n)
	}

	// Idempotent: second sweep changes nothing.
	n, err = DeactivatePlayersOlderThan(ctx, db, cutoff)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep must be a no-op, got %d", n)
	}

	p, err := GetPlayerByMessageID(ctx, db, 3)
	if err != nil {
		t.Fatalf("load player 3: %v", err)
	}
	if !p.Active {
		t.Fatalf("player at exact cutoff must stay active")
	}
}

func TestUpdatePlayerByMessageID_Reactivation(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	seedPlayer(t, db, 1, time.Now().Add(-48*time.Hour), false)

	p, err := UpdatePlayerByMessageID(ctx, db, 1, map[string]any{"active": true})
	if err != nil {
		t.Fatalf("UpdatePlayerByMessageID: %v", err)
	}
	if !p.Active {
		t.Fatalf("explicit write must be able to re-activate")
	}
}

func TestListPlayers_Filter(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now()

	seedPlayer(t, db, 1, now, true)
	seedPlayer(t, db, 2, now, false)

	active := true
	players, total, err := ListPlayers(ctx, db, PlayerFilter{Active: &active}, 0, 10)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if total != 1 || len(players) != 1 || players[0].MessageID != 1 {
		t.Fatalf("active filter mismatch: total=%d players=%+v", total, players)
	}
}

func TestDeletePlayerByMessageID_NotFound(t *testing.T) {
	db := newRepoDB(t)
	if err := DeletePlayerByMessageID(context.Background(), db, 404); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
