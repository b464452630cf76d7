package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quizhub/go-trivia-bot/internal/config"
	"github.com/quizhub/go-trivia-bot/internal/domain"
	"github.com/quizhub/go-trivia-bot/internal/http/middleware"
	"github.com/quizhub/go-trivia-bot/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        1000, // keep the limiter out of the way
		RateBurst:      1000,
		IdempotencyTTL: time.Hour,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r, db
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	r, _ := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	// Unknown routes answer with the structured envelope.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("no route: expected 404, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid 404 body: %v", err)
	}
	if body["code"] != "not_found" {
		t.Fatalf("unexpected 404 body: %v", body)
	}

	// Wrong method on a known route.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/questions", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no method: expected 405, got %d", w.Code)
	}
}

func TestRouter_AdminTokenGatesAPIOnly(t *testing.T) {
	cfg := testConfig()
	cfg.AdminToken = "s3kret"
	r, _ := newTestServer(t, cfg)

	// Health stays open.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health must not require the token, got %d", w.Code)
	}

	// API requires the token.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil)
	req.Header.Set(middleware.HeaderAdminToken, "s3kret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_QuestionModerationFlow(t *testing.T) {
	r, _ := newTestServer(t, testConfig())

	submit := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := submit(`{"title": "What gets wetter the more it dries?", "answers": ["a towel"], "answer_description": "A towel."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var q domain.Question
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil || q.ID == 0 {
		t.Fatalf("submit body: %s (%v)", w.Body.String(), err)
	}
	if q.IsApproved {
		t.Fatalf("fresh submission must be unapproved")
	}

	// Resubmitting the same title is refused.
	w = submit(`{"title": "What gets wetter the more it dries?", "answers": ["a towel"]}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Approve, then verify via fetch.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/questions/1/approve", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("approve: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/questions/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil || !q.IsApproved {
		t.Fatalf("approval not visible: %s (%v)", w.Body.String(), err)
	}

	// Approved questions resist deletion.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/questions/1", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("delete approved: expected 409, got %d", w.Code)
	}
}

func TestRouter_DirectoryEndpoints(t *testing.T) {
	r, db := newTestServer(t, testConfig())

	ctx := context.Background()
	if _, err := repo.ResolveChat(ctx, db, 2000000001); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	if _, err := repo.ResolveUser(ctx, db, 42); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("users: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var users struct {
		Users []domain.User `json:"users"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil || len(users.Users) != 1 || users.Users[0].VKID != 42 {
		t.Fatalf("users body mismatch: %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("chats: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var chats struct {
		Chats []domain.Chat `json:"chats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &chats); err != nil || len(chats.Chats) != 1 || chats.Chats[0].VKID != 2000000001 {
		t.Fatalf("chats body mismatch: %s (%v)", w.Body.String(), err)
	}
}

func TestRouter_SubmitIdempotencyReplay(t *testing.T) {
	r, _ := newTestServer(t, testConfig())

	body := `{"title": "t", "answers": ["a"]}`
	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "retry-key-1")
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first submit: expected 201, got %d: %s", first.Code, first.Body.String())
	}
	var q1 domain.Question
	if err := json.Unmarshal(first.Body.Bytes(), &q1); err != nil {
		t.Fatalf("first body: %v", err)
	}

	second := send()
	if second.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d: %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay must be marked with the Idempotency-Replayed header")
	}
	var q2 domain.Question
	if err := json.Unmarshal(second.Body.Bytes(), &q2); err != nil {
		t.Fatalf("replay body: %v", err)
	}
	if q1.ID != q2.ID {
		t.Fatalf("replay must return the original question: %d vs %d", q1.ID, q2.ID)
	}

	// Only one question was actually created.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil))
	var list struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("list body: %v", err)
	}
	if len(list.Questions) != 1 {
		t.Fatalf("replayed submit must not create a second question, got %d", len(list.Questions))
	}
}
