package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/fanhub/internal/model"
)

// --- モック定義 ---

// mockSessionReader はSessionReaderのモック。
type mockSessionReader struct {
	readFunc func(ctx context.Context, sid string) *model.Session
}

func (m *mockSessionReader) Read(ctx context.Context, sid string) *model.Session {
	return m.readFunc(ctx, sid)
}

var _ SessionReader = (*mockSessionReader)(nil)

func fanSession(isAdmin bool) *model.Session {
	return &model.Session{
		ID:      "sid123",
		User:    model.User{Email: "fan@example.com", Name: "팬"},
		Ts:      1700000000000,
		IsAdmin: isAdmin,
	}
}

// --- テスト ---

// 有効なCookieでセッションがコンテキストに注入されることを検証
func TestSessionMiddleware_InjectsSession(t *testing.T) {
	reader := &mockSessionReader{
		readFunc: func(_ context.Context, sid string) *model.Session {
			if sid != "sid123" {
				t.Errorf("Read called with sid %q", sid)
			}
			return fanSession(false)
		},
	}

	var got *model.Session
	handler := NewSessionMiddleware(reader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sid123"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.User.Email != "fan@example.com" {
		t.Errorf("session in context = %+v", got)
	}
}

// Cookieなし・無効セッションでもリクエストが通ることを検証
func TestSessionMiddleware_PassesThroughWithoutSession(t *testing.T) {
	reader := &mockSessionReader{
		readFunc: func(_ context.Context, _ string) *model.Session { return nil },
	}

	for _, withCookie := range []bool{false, true} {
		called := false
		handler := NewSessionMiddleware(reader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if SessionFromContext(r.Context()) != nil {
				t.Error("session should be nil")
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/confession", nil)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if !called {
			t.Errorf("withCookie=%v: handler not called", withCookie)
		}
	}
}

// RequireSessionが未ログインに401を返すことを検証
func TestRequireSession(t *testing.T) {
	handler := RequireSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 未ログイン
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/diary", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.OK || body.Error != model.ErrCodeLoginRequired {
		t.Errorf("body = %+v", body)
	}

	// ログイン済み
	req := httptest.NewRequest(http.MethodPost, "/diary", nil)
	req = req.WithContext(ContextWithSession(req.Context(), fanSession(false)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// RequireAdminが未ログインに401、非管理者に403を返すことを検証
func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 未ログイン
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gallery/pin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	// 非管理者
	req := httptest.NewRequest(http.MethodPost, "/gallery/pin", nil)
	req = req.WithContext(ContextWithSession(req.Context(), fanSession(false)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", rec.Code)
	}
	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.Error != model.ErrCodeAdminRequired {
		t.Errorf("error = %q, want admin required", body.Error)
	}

	// 管理者
	req = httptest.NewRequest(http.MethodPost, "/gallery/pin", nil)
	req = req.WithContext(ContextWithSession(req.Context(), fanSession(true)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}
