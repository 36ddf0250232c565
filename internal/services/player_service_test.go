package services

import (
	"context"
	"testing"
	"time"

	"github.com/squadfinders/bot-gateway/internal/domain"
)

func TestNormalizePlatform(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"pc", PlatformPC},
		{" PC ", PlatformPC},
		{"desktop", PlatformPC},
		{"computer", PlatformPC},
		{"console", PlatformConsole},
		{"PS5", PlatformConsole},
		{"xbox", PlatformConsole},
		{"playstation", PlatformConsole},
		{"toaster", PlatformUnknown},
		{"", PlatformUnknown},
	}
	for _, c := range cases {
		if got := NormalizePlatform(c.in); got != c.want {
			t.Fatalf("NormalizePlatform(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeGameMode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"duo trios", "Duo Trios"},
		{"RANKED", "Ranked"},
		{"  ", "unknown"},
		{"", "unknown"},
	}
	for _, c := range cases {
		if got := NormalizeGameMode(c.in); got != c.want {
			t.Fatalf("NormalizeGameMode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPlayerService_CreateNormalizes(t *testing.T) {
	db := newServiceDB(t)
	svc := &PlayerService{DB: db}
	ctx := context.Background()

	p := &domain.Player{
		MessageID:   1,
		MessageDate: time.Now(),
		GroupID:     "g1",
		Platform:    "ps4",
		GameMode:    "battle royale",
	}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Platform != PlatformConsole {
		t.Fatalf("expected Console, got %q", p.Platform)
	}
	if p.GameMode != "Battle Royale" {
		t.Fatalf("expected title-cased mode, got %q", p.GameMode)
	}
	if p.Rank != "unknown" {
		t.Fatalf("empty rank must default to unknown, got %q", p.Rank)
	}
}

func TestPlayerService_UpdateNormalizes(t *testing.T) {
	db := newServiceDB(t)
	svc := &PlayerService{DB: db}
	ctx := context.Background()

	if err := svc.Create(ctx, &domain.Player{MessageID: 1, MessageDate: time.Now(), GroupID: "g1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := svc.Update(ctx, 1, map[string]any{"platform": "Desktop", "game_mode": "solo"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Platform != PlatformPC || p.GameMode != "Solo" {
		t.Fatalf("labels not normalized on update: %+v", p)
	}
}

func TestPlayerService_NotFound(t *testing.T) {
	db := newServiceDB(t)
	svc := &PlayerService{DB: db}
	ctx := context.Background()

	if _, err := svc.Get(ctx, 404); err != ErrPlayerNotFound {
		t.Fatalf("Get: expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, 404, map[string]any{"rank": "gold"}); err != ErrPlayerNotFound {
		t.Fatalf("Update: expected ErrPlayerNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 404); err != ErrPlayerNotFound {
		t.Fatalf("Delete: expected ErrPlayerNotFound, got %v", err)
	}
}
