package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doloni/support-bot/internal/bot"
	"github.com/doloni/support-bot/internal/config"
	"github.com/doloni/support-bot/internal/repo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTransport struct {
	mu    sync.Mutex
	sent  []bot.Message
	chats []int64
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, msg bot.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	f.chats = append(f.chats, chatID)
	return nil
}

func (f *fakeTransport) AnswerCallback(context.Context, string, string, bool) error {
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() config.Config {
	return config.Config{
		BotToken:          "123:abc",
		OperatorsGroupID:  -500,
		OperatorIDs:       []int64{100},
		WebhookSecret:     "s3cret",
		WebhookPath:       "/webhook",
		WhatsAppPrimary:   "393920725322",
		WhatsAppSecondary: "393286058012",
		RateRPS:           1000,
		RateBurst:         1000,
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeTransport, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "router.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA busy_timeout = 5000")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tr := &fakeTransport{}
	r := gin.New()
	RegisterRoutes(r, db, tr, testConfig())
	return r, tr, db
}

func postUpdate(r *gin.Engine, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startUpdate(updateID, userID int64) string {
	return fmt.Sprintf(`{
		"update_id": %d,
		"message": {
			"message_id": 1,
			"from": {"id": %d, "is_bot": false, "first_name": "Mario", "language_code": "it"},
			"chat": {"id": %d, "type": "private"},
			"text": "/start"
		}
	}`, updateID, userID, userID)
}

func TestWebhook_SecretEnforced(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	if w := postUpdate(r, "wrong", startUpdate(1, 7)); w.Code != http.StatusForbidden {
		t.Fatalf("wrong secret: status = %d", w.Code)
	}
	if w := postUpdate(r, "", startUpdate(1, 7)); w.Code != http.StatusForbidden {
		t.Fatalf("missing secret: status = %d", w.Code)
	}
	if tr.count() != 0 {
		t.Errorf("transport called despite rejected secret")
	}
}

func TestWebhook_StartFlows(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	w := postUpdate(r, "s3cret", startUpdate(1, 7))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "ok" {
		t.Errorf("body = %q", w.Body.String())
	}
	// An unknown user gets the language prompt.
	if tr.count() != 1 {
		t.Fatalf("sent %d messages, want 1", tr.count())
	}
	if !strings.Contains(tr.sent[0].Text, "lingua") {
		t.Errorf("first reply = %q, want language prompt", tr.sent[0].Text)
	}
}

func TestWebhook_DuplicateUpdateSkipped(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	postUpdate(r, "s3cret", startUpdate(42, 7))
	before := tr.count()

	w := postUpdate(r, "s3cret", startUpdate(42, 7))
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate delivery: status = %d", w.Code)
	}
	if tr.count() != before {
		t.Errorf("duplicate update reached the dispatcher")
	}
}

func TestWebhook_GarbageBodyStillAck(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	w := postUpdate(r, "s3cret", `{"update_id": "not-a-number"`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if tr.count() != 0 {
		t.Errorf("garbage payload produced sends")
	}
}

func TestWebhook_IgnorableUpdateAck(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	// Group chatter decodes to nothing and is acked without dispatch.
	body := `{
		"update_id": 9,
		"message": {
			"message_id": 1,
			"from": {"id": 7, "is_bot": false, "first_name": "Mario"},
			"chat": {"id": -500, "type": "supergroup"},
			"text": "hello group"
		}
	}`
	w := postUpdate(r, "s3cret", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if tr.count() != 0 {
		t.Errorf("group message produced sends")
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("metrics exposition missing request counter")
	}
}

func TestWebhook_CallbackDispatched(t *testing.T) {
	r, tr, _ := newTestRouter(t)

	// Operator taps claim on a missing ticket: handled, answered, no sends.
	body := `{
		"update_id": 11,
		"callback_query": {
			"id": "cb1",
			"from": {"id": 100, "is_bot": false, "first_name": "Op"},
			"message": {"message_id": 5, "chat": {"id": -500, "type": "supergroup"}},
			"data": "t:claim:DD-2026-000001"
		}
	}`
	w := postUpdate(r, "s3cret", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if tr.count() != 0 {
		t.Errorf("claim on missing ticket should only answer the callback")
	}
}
