// Package domain defines the persistence models for LFG messages, players,
// per-user seen lists, and deletion statistics. These types are mapped with
// GORM and form the core data layer of the gateway.
package domain

import (
	"time"
)

// Status is the AI-processing state of a message. Transitions are monotonic
// along pending_prefilter → pending → processing → {completed, failed}, with
// expired reachable from any non-terminal state once the message is older
// than the configured expiry window.
type Status string

const (
	StatusPendingPrefilter Status = "pending_prefilter"
	StatusPending          Status = "pending"
	StatusProcessing       Status = "processing"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusExpired          Status = "expired"
)

// NonTerminalStatuses are the states the expiry sweep may transition to
// expired. processing is included so messages claimed by a worker that
// crashed do not stay stuck forever.
var NonTerminalStatuses = []Status{StatusPendingPrefilter, StatusPending, StatusProcessing}

// Terminal reports whether s is a final state. Terminal messages are never
// touched by the scheduler; only explicit API writes may change them.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingPrefilter, StatusPending, StatusProcessing,
		StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Message is a "looking for group" message collected from a Telegram group.
//
// MessageDate is the timestamp of the message in its source chat and is the
// age reference for every scheduling decision; it is NOT the row creation
// time. AIStatus is the only field the scheduler mutates.
type Message struct {
	ID          uint      `json:"-"            gorm:"primaryKey"`
	MessageID   int64     `json:"message_id"   gorm:"not null;uniqueIndex:ux_group_message,priority:2;index"`
	MessageDate time.Time `json:"message_date" gorm:"not null;index"`

	SenderID       string `json:"sender_id"       gorm:"type:varchar(64)"`
	SenderUsername string `json:"sender_username" gorm:"type:varchar(128);index"`
	SenderName     string `json:"sender_name"     gorm:"type:varchar(255)"`

	GroupID       string `json:"group_id"       gorm:"type:varchar(64);uniqueIndex:ux_group_message,priority:1"`
	GroupTitle    string `json:"group_title"    gorm:"type:varchar(255)"`
	GroupUsername string `json:"group_username" gorm:"type:varchar(128);index"`

	Text string `json:"message" gorm:"type:text"`

	// Classification outputs, written by the external AI worker. The
	// scheduler never writes these; IsValid gates the pending→processing
	// claim.
	IsValid bool   `json:"is_valid" gorm:"not null;default:false"`
	IsLFG   bool   `json:"is_lfg"   gorm:"not null;default:false"`
	Reason  string `json:"reason"   gorm:"type:text"`

	AIStatus Status `json:"ai_status" gorm:"type:varchar(24);not null;default:'pending_prefilter';index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Player is a parsed LFG posting: who is looking, on what platform, for which
// mode. Active flips to false once MessageDate exceeds the cleanup threshold;
// re-activation only happens through an explicit API write (a new sighting),
// never through the scheduler.
type Player struct {
	ID          uint      `json:"-"            gorm:"primaryKey"`
	MessageID   int64     `json:"message_id"   gorm:"not null;uniqueIndex:ux_player_group_message,priority:2;index"`
	MessageDate time.Time `json:"message_date" gorm:"not null;index"`

	SenderID       string `json:"sender_id"       gorm:"type:varchar(64)"`
	SenderUsername string `json:"sender_username" gorm:"type:varchar(128)"`
	SenderName     string `json:"sender_name"     gorm:"type:varchar(255)"`

	GroupID       string `json:"group_id"       gorm:"type:varchar(64);uniqueIndex:ux_player_group_message,priority:1"`
	GroupTitle    string `json:"group_title"    gorm:"type:varchar(255)"`
	GroupUsername string `json:"group_username" gorm:"type:varchar(128)"`

	Text string `json:"message" gorm:"type:text"`

	Platform     string `json:"platform"      gorm:"type:varchar(16);not null;default:'unknown';index"`
	Rank         string `json:"rank"          gorm:"type:varchar(64);not null;default:'unknown'"`
	PlayersCount int    `json:"players_count" gorm:"not null;default:0"`
	GameMode     string `json:"game_mode"     gorm:"type:varchar(64);not null;default:'unknown'"`

	Active bool `json:"active" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Player.
func (Player) TableName() string { return "players" }

// UserSeen tracks which messages a bot user has already been shown, for
// dedup. UpdatedAt is the age reference for the cleanup sweep: entries idle
// longer than the configured threshold are deactivated.
type UserSeen struct {
	ID       uint   `json:"-"        gorm:"primaryKey"`
	UserID   string `json:"user_id"  gorm:"type:varchar(64);not null;uniqueIndex"`
	Username string `json:"username" gorm:"type:varchar(128)"`

	// MessageIDs is a comma-separated list of message_id values. SQLite has
	// no array type and the list is only ever read and written whole.
	MessageIDs string `json:"message_ids" gorm:"type:text"`

	Active bool `json:"active" gorm:"not null;default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// TableName returns the database table name for UserSeen.
func (UserSeen) TableName() string { return "user_seen" }

// DeletionStats is a singleton row of running deletion counters. It is
// created lazily on the first deletion event and only ever updated through
// atomic increments. DeletedToday and the average latency are derived at
// read time — the per-day table is the source of truth for "today" — so they
// are not columns here.
type DeletionStats struct {
	ID                   uint      `json:"-"                      gorm:"primaryKey"`
	TotalDeleted         int64     `json:"total_deleted"          gorm:"not null;default:0"`
	TotalDeletionSeconds int64     `json:"total_deletion_seconds" gorm:"not null;default:0"`
	LastResetDate        time.Time `json:"last_reset_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DeletionStats.
func (DeletionStats) TableName() string { return "deletion_stats" }

// DailyDeletion is one row per UTC calendar day, incremented for every
// message deletion on that day. The dashboard chart reads this series, and
// the "deleted today" figure is derived from today's row.
type DailyDeletion struct {
	ID                   uint      `json:"-"     gorm:"primaryKey"`
	Date                 time.Time `json:"date"  gorm:"not null;uniqueIndex"`
	Count                int64     `json:"count" gorm:"not null;default:0"`
	TotalDeletionSeconds int64     `json:"total_deletion_seconds" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailyDeletion.
func (DailyDeletion) TableName() string { return "daily_deletions" }

// DayOf truncates t to UTC midnight, the key used by DailyDeletion.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
