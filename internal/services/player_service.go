// Package services – PlayerService
//
// Players are the parsed LFG postings the bot serves back to users. The
// service normalizes the free-form platform and game-mode labels on write
// and exposes the CRUD surface; the age-based deactivation sweep itself
// lives with the scheduler, not here.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/repo"
)

// Known platform labels. Anything else normalizes to "unknown".
const (
	PlatformPC      = "PC"
	PlatformConsole = "Console"
	PlatformUnknown = "unknown"
)

// PlayerService owns player persistence and label normalization.
type PlayerService struct {
	DB *gorm.DB
}

var titleCaser = cases.Title(language.English)

// NormalizePlatform maps free-form platform strings onto the known enum.
func NormalizePlatform(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "pc", "computer", "desktop":
		return PlatformPC
	case "console", "ps", "ps4", "ps5", "playstation", "xbox":
		return PlatformConsole
	default:
		return PlatformUnknown
	}
}

// NormalizeGameMode title-cases a free-form game mode ("duo trios" → "Duo
// Trios"); empty input stays "unknown".
func NormalizeGameMode(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return "unknown"
	}
	return titleCaser.String(strings.ToLower(m))
}

// Create inserts a player after normalizing its labels.
func (s *PlayerService) Create(ctx context.Context, p *domain.Player) error {
	p.Platform = NormalizePlatform(p.Platform)
	p.GameMode = NormalizeGameMode(p.GameMode)
	if p.Rank == "" {
		p.Rank = "unknown"
	}
	return repo.CreatePlayer(ctx, s.DB, p)
}

// Get fetches one player by message_id.
func (s *PlayerService) Get(ctx context.Context, messageID int64) (*domain.Player, error) {
	p, err := repo.GetPlayerByMessageID(ctx, s.DB, messageID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrPlayerNotFound
	}
	return p, err
}

// List returns a filtered, paginated page of players, newest first.
func (s *PlayerService) List(ctx context.Context, f repo.PlayerFilter, page, pageSize int) ([]domain.Player, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	return repo.ListPlayers(ctx, s.DB, f, offset, pageSize)
}

// Update applies a partial update. A write that sets active back to true is
// the legitimate re-activation path (a new sighting); the cleanup job only
// ever moves the flag the other way.
func (s *PlayerService) Update(ctx context.Context, messageID int64, fields map[string]any) (*domain.Player, error) {
	if v, ok := fields["platform"]; ok {
		if str, ok := v.(string); ok {
			fields["platform"] = NormalizePlatform(str)
		}
	}
	if v, ok := fields["game_mode"]; ok {
		if str, ok := v.(string); ok {
			fields["game_mode"] = NormalizeGameMode(str)
		}
	}
	p, err := repo.UpdatePlayerByMessageID(ctx, s.DB, messageID, fields)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrPlayerNotFound
	}
	return p, err
}

// Delete removes one player.
func (s *PlayerService) Delete(ctx context.Context, messageID int64) error {
	err := repo.DeletePlayerByMessageID(ctx, s.DB, messageID)
	if err == gorm.ErrRecordNotFound {
		return ErrPlayerNotFound
	}
	return err
}
