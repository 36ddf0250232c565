package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/squadfinders/bot-gateway/internal/config"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/scheduler"
	"github.com/squadfinders/bot-gateway/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Port:        "0",
		GinMode:     "test",
		APIBasePath: "/api/v1",
		DBPath:      "unused",
		AutoExpiry: config.AutoExpiryConfig{
			Enabled:  false,
			Window:   5 * time.Minute,
			Interval: time.Minute,
		},
		PlayerCleanup:   config.CleanupConfig{Enabled: false, DisableAfter: 24 * time.Hour, Interval: time.Hour},
		UserSeenCleanup: config.CleanupConfig{Enabled: false, DisableAfter: 24 * time.Hour, Interval: time.Hour},
		ClaimDefault:    50,
		ClaimCeiling:    100,
		DuplicateWindow: time.Hour,
		RateRPS:         1000,
		RateBurst:       1000,
	}
}

// newTestRouter builds a full engine backed by a temp database.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
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

	cfg := testConfig()
	statsSvc := &services.StatsService{DB: db}
	msgSvc := &services.MessageService{
		DB:              db,
		ExpiryWindow:    cfg.AutoExpiry.Window,
		ClaimDefault:    cfg.ClaimDefault,
		ClaimCeiling:    cfg.ClaimCeiling,
		DuplicateWindow: cfg.DuplicateWindow,
		Stats:           statsSvc,
	}
	jobs := scheduler.NewSet(db, msgSvc, cfg, zerolog.Nop())

	r := gin.New()
	RegisterRoutes(r, db, msgSvc, statsSvc, jobs, cfg)
	return r, db
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func messageBody(id int64, sender, text string, date time.Time) string {
	return fmt.Sprintf(`{"message_id":%d,"message_date":%q,"sender_id":%q,"group_id":"g1","message":%q,"is_valid":true,"ai_status":"pending"}`,
		id, date.Format(time.RFC3339), sender, text)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
}

func TestMessageLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)
	now := time.Now().UTC().Truncate(time.Second)

	// Ingest.
	w := do(t, r, http.MethodPost, "/api/v1/messages", messageBody(1, "u1", "lfg duo", now))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}

	// Duplicate from the same sender inside the window: 409.
	w = do(t, r, http.MethodPost, "/api/v1/messages", messageBody(2, "u1", "lfg duo", now))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"code":"conflict"`) {
		t.Fatalf("expected conflict code, got %s", w.Body.String())
	}

	// Fetch.
	w = do(t, r, http.MethodGet, "/api/v1/messages/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}

	// Claim: the fresh pending message is handed out as processing.
	w = do(t, r, http.MethodGet, "/api/v1/messages/unprocessed?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("claim: %d %s", w.Code, w.Body.String())
	}
	var claim struct {
		Data []struct {
			MessageID int64  `json:"message_id"`
			AIStatus  string `json:"ai_status"`
		} `json:"data"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &claim); err != nil {
		t.Fatalf("decode claim: %v", err)
	}
	if claim.Count != 1 || len(claim.Data) != 1 || claim.Data[0].AIStatus != "processing" {
		t.Fatalf("claim envelope mismatch: %s", w.Body.String())
	}

	// Second claim drains nothing.
	w = do(t, r, http.MethodGet, "/api/v1/messages/unprocessed", "")
	if err := json.Unmarshal(w.Body.Bytes(), &claim); err != nil {
		t.Fatalf("decode second claim: %v", err)
	}
	if claim.Count != 0 {
		t.Fatalf("expected drained pool, got %s", w.Body.String())
	}

	// Worker writes its verdict.
	w = do(t, r, http.MethodPut, "/api/v1/messages/1", `{"ai_status":"completed","is_lfg":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	// Delete returns deletion analytics.
	w = do(t, r, http.MethodDelete, "/api/v1/messages/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "deletion_time_seconds") {
		t.Fatalf("expected deletion analytics, got %s", w.Body.String())
	}

	// Deletion shows up in the stats snapshot.
	w = do(t, r, http.MethodGet, "/api/v1/stats/deletions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"total_deleted":1`) {
		t.Fatalf("expected one recorded deletion, got %s", w.Body.String())
	}
}

func TestMessageNotFoundEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/messages/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("expected envelope, got %s", w.Body.String())
	}
}

func TestMessageBadID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/messages/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListRejectsMalformedBoolFilter(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/messages?is_valid=maybe", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/v1/messages?ai_status=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: expected 400, got %d", w.Code)
	}
}

func TestValidSinceRequiresTimestamp(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/messages/valid-since", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing timestamp: expected 400, got %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/v1/messages/valid-since?timestamp=yesterday", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad timestamp: expected 400, got %d", w.Code)
	}

	since := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	w = do(t, r, http.MethodGet, "/api/v1/messages/valid-since?timestamp="+since, "")
	if w.Code != http.StatusOK {
		t.Fatalf("valid timestamp: expected 200, got %d %s", w.Code, w.Body.String())
	}
}

func TestPlayersCRUDOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)
	now := time.Now().UTC().Truncate(time.Second)

	body := fmt.Sprintf(`{"message_id":1,"message_date":%q,"group_id":"g1","platform":"ps5","game_mode":"duo","active":true}`, now.Format(time.RFC3339))
	w := do(t, r, http.MethodPost, "/api/v1/players", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create player: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"platform":"Console"`) {
		t.Fatalf("platform not normalized: %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/v1/players?active=true", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total":1`) {
		t.Fatalf("list players: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodDelete, "/api/v1/players/1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete player: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/v1/players/1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleted player must 404, got %d", w.Code)
	}
}

func TestUserSeenRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/users/seen", `{"user_id":"u1","username":"alice","message_ids":"1,2,3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert seen: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/v1/users/seen/u1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"message_ids":"1,2,3"`) {
		t.Fatalf("get seen: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/v1/users/seen/u2", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing seen list must 404, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/v1/users/seen", `{"username":"no-id"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upsert without user_id must 400, got %d", w.Code)
	}
}

func TestJobStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/status/jobs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status jobs: %d", w.Code)
	}
	// All jobs disabled in the test config.
	if !strings.Contains(w.Body.String(), `"jobs":[]`) {
		t.Fatalf("expected empty job list, got %s", w.Body.String())
	}
}

func TestRouterFallbacks(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("no-route fallback: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPatch, "/api/v1/messages", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no-method fallback: %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gateway_http_requests") {
		t.Fatalf("expected gateway metrics in exposition, got %d bytes", w.Body.Len())
	}
}
