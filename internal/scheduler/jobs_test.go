package scheduler

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/squadfinders/bot-gateway/internal/config"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/services"
)

func newSchedulerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("sched_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func setConfig(expiry, player, seen bool) config.Config {
	return config.Config{
		AutoExpiry:      config.AutoExpiryConfig{Enabled: expiry, Window: 5 * time.Minute, Interval: time.Hour},
		PlayerCleanup:   config.CleanupConfig{Enabled: player, DisableAfter: 24 * time.Hour, Interval: time.Hour},
		UserSeenCleanup: config.CleanupConfig{Enabled: seen, DisableAfter: 24 * time.Hour, Interval: time.Hour},
	}
}

func TestNewSet_OnlyEnabledJobsConstructed(t *testing.T) {
	db := newSchedulerDB(t)
	msgs := &services.MessageService{DB: db, ExpiryWindow: 5 * time.Minute}

	s := NewSet(db, msgs, setConfig(true, false, true), zerolog.Nop())
	statuses := s.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 enabled jobs, got %d", len(statuses))
	}
	if statuses[0].Name != "auto_expiry" || statuses[1].Name != "user_seen_cleanup" {
		t.Fatalf("unexpected job set: %+v", statuses)
	}

	s = NewSet(db, msgs, setConfig(false, false, false), zerolog.Nop())
	if len(s.Statuses()) != 0 {
		t.Fatalf("disabled config must build no jobs")
	}
}

func TestSet_StartAllStopAll(t *testing.T) {
	db := newSchedulerDB(t)
	msgs := &services.MessageService{DB: db, ExpiryWindow: 5 * time.Minute}

	s := NewSet(db, msgs, setConfig(true, true, true), zerolog.Nop())
	s.StartAll()

	for _, st := range s.Statuses() {
		if !st.Running {
			t.Fatalf("job %s not running after StartAll", st.Name)
		}
	}

	s.StopAll()
	for _, st := range s.Statuses() {
		if st.Running {
			t.Fatalf("job %s still running after StopAll", st.Name)
		}
	}
}
