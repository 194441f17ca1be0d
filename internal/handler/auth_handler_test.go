package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// --- モック定義 ---

// mockVerifier はCredentialVerifierのモック。
type mockVerifier struct {
	verifyFunc func(ctx context.Context, credential string) (*model.User, error)
}

func (m *mockVerifier) Verify(ctx context.Context, credential string) (*model.User, error) {
	return m.verifyFunc(ctx, credential)
}

var _ CredentialVerifier = (*mockVerifier)(nil)

// mockSessionManager はSessionManagerのモック。
type mockSessionManager struct {
	createFunc  func(ctx context.Context, user model.User) (string, error)
	destroyFunc func(ctx context.Context, sid string) error
}

func (m *mockSessionManager) Create(ctx context.Context, user model.User) (string, error) {
	return m.createFunc(ctx, user)
}

func (m *mockSessionManager) Destroy(ctx context.Context, sid string) error {
	if m.destroyFunc != nil {
		return m.destroyFunc(ctx, sid)
	}
	return nil
}

var _ SessionManager = (*mockSessionManager)(nil)

// mockPrefsReader はPrefsReaderのモック。
type mockPrefsReader struct {
	getFunc func(ctx context.Context, email string) model.Prefs
}

func (m *mockPrefsReader) Get(ctx context.Context, email string) model.Prefs {
	if m.getFunc != nil {
		return m.getFunc(ctx, email)
	}
	return model.Prefs{Favs: []string{}}
}

var _ PrefsReader = (*mockPrefsReader)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure:     true,
		SessionMaxAge:    2592000,
		LoginRedirectURL: "https://fanhub.example.com/",
	}
}

func verifierReturning(user *model.User, err error) *mockVerifier {
	return &mockVerifier{
		verifyFunc: func(_ context.Context, credential string) (*model.User, error) {
			if credential == "" {
				return nil, model.NewMissingCredentialError()
			}
			return user, err
		},
	}
}

func findSessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- テスト ---

// フォームエンコードのcredentialでログインできることを検証
func TestGoogleLogin_FormSuccess(t *testing.T) {
	verifier := verifierReturning(&model.User{Email: "fan@example.com", Name: "팬"}, nil)
	sessions := &mockSessionManager{
		createFunc: func(_ context.Context, user model.User) (string, error) {
			if user.Email != "fan@example.com" {
				t.Errorf("Create called with %+v", user)
			}
			return "newsid123", nil
		},
	}
	h := NewAuthHandler(verifier, sessions, &mockPrefsReader{}, testAuthConfig(), nil)

	form := url.Values{"credential": {"tok-abc"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body okBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.OK {
		t.Errorf("body = %s", rec.Body.String())
	}

	cookie := findSessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "newsid123" {
		t.Errorf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("cookie attributes = %+v, want HttpOnly Secure SameSite=None", cookie)
	}
	if cookie.MaxAge != 2592000 {
		t.Errorf("cookie MaxAge = %d, want 2592000", cookie.MaxAge)
	}
}

// JSONボディのcredentialでもログインできることを検証
func TestGoogleLogin_JSONSuccess(t *testing.T) {
	verifier := verifierReturning(&model.User{Email: "fan@example.com"}, nil)
	sessions := &mockSessionManager{
		createFunc: func(_ context.Context, _ model.User) (string, error) { return "sid", nil },
	}
	h := NewAuthHandler(verifier, sessions, &mockPrefsReader{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(`{"credential":"tok-abc"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

// credentialなしで400とmissing credentialが返ることを検証
func TestGoogleLogin_MissingCredential(t *testing.T) {
	verifier := verifierReturning(nil, nil)
	sessions := &mockSessionManager{
		createFunc: func(_ context.Context, _ model.User) (string, error) {
			t.Error("Create should not be called")
			return "", nil
		},
	}
	h := NewAuthHandler(verifier, sessions, &mockPrefsReader{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.OK || body.Error != model.ErrCodeMissingCredential {
		t.Errorf("body = %+v", body)
	}
	if findSessionCookie(t, rec) != nil {
		t.Error("session cookie should not be set on failure")
	}
}

// 検証失敗がステータスとエラーコード付きで返ることを検証
func TestGoogleLogin_VerifyFailure(t *testing.T) {
	verifier := verifierReturning(nil, model.NewAudienceMismatchError())
	h := NewAuthHandler(verifier, &mockSessionManager{}, &mockPrefsReader{}, testAuthConfig(), nil)

	form := url.Values{"credential": {"tok-bad"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeAudienceMismatch) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// リダイレクトフロー成功で設定先にリダイレクトされることを検証
func TestGoogleRedirect_Success(t *testing.T) {
	verifier := verifierReturning(&model.User{Email: "fan@example.com"}, nil)
	sessions := &mockSessionManager{
		createFunc: func(_ context.Context, _ model.User) (string, error) { return "sid", nil },
	}
	h := NewAuthHandler(verifier, sessions, &mockPrefsReader{}, testAuthConfig(), nil)

	form := url.Values{"credential": {"tok-abc"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/google/redirect", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.GoogleRedirect(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://fanhub.example.com/" {
		t.Errorf("Location = %q", got)
	}
	if findSessionCookie(t, rec) == nil {
		t.Error("session cookie not set")
	}
}

// リダイレクトフロー失敗でHTMLエラーページが返ることを検証
func TestGoogleRedirect_FailureRendersHTML(t *testing.T) {
	verifier := verifierReturning(nil, model.NewEmailNotVerifiedError())
	h := NewAuthHandler(verifier, &mockSessionManager{}, &mockPrefsReader{}, testAuthConfig(), nil)

	form := url.Values{"credential": {"tok-bad"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/google/redirect", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.GoogleRedirect(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeEmailNotVerified) {
		t.Errorf("body should name the failure: %s", rec.Body.String())
	}
}

// ログアウトでセッション破棄とCookie削除が行われることを検証
func TestLogout(t *testing.T) {
	destroyed := ""
	sessions := &mockSessionManager{
		createFunc:  func(_ context.Context, _ model.User) (string, error) { return "", nil },
		destroyFunc: func(_ context.Context, sid string) error { destroyed = sid; return nil },
	}
	h := NewAuthHandler(verifierReturning(nil, nil), sessions, &mockPrefsReader{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "oldsid"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if destroyed != "oldsid" {
		t.Errorf("destroyed sid = %q, want oldsid", destroyed)
	}
	cookie := findSessionCookie(t, rec)
	if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}

// Cookieなしのログアウトも成功することを検証（冪等）
func TestLogout_WithoutCookie(t *testing.T) {
	h := NewAuthHandler(verifierReturning(nil, nil), &mockSessionManager{
		createFunc: func(_ context.Context, _ model.User) (string, error) { return "", nil },
	}, &mockPrefsReader{}, testAuthConfig(), nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

// 未ログインの/sessionが空オブジェクトを返すことを検証
func TestSession_Anonymous(t *testing.T) {
	h := NewAuthHandler(verifierReturning(nil, nil), &mockSessionManager{}, &mockPrefsReader{}, testAuthConfig(), nil)

	rec := httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Errorf("body = %q, want {}", got)
	}
}

// ログイン済みの/sessionがユーザー・管理者判定・設定を返すことを検証
func TestSession_Authenticated(t *testing.T) {
	prefs := &mockPrefsReader{
		getFunc: func(_ context.Context, email string) model.Prefs {
			if email != "fan@example.com" {
				t.Errorf("Get called with %q", email)
			}
			return model.Prefs{Favs: []string{"karina"}}
		},
	}
	h := NewAuthHandler(verifierReturning(nil, nil), &mockSessionManager{}, prefs, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{
		ID:      "sid1",
		User:    model.User{Email: "fan@example.com", Name: "팬"},
		Ts:      1700000000000,
		IsAdmin: true,
	}))
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "fan@example.com" {
		t.Errorf("user = %v", body["user"])
	}
	if body["isAdmin"] != true {
		t.Errorf("isAdmin = %v", body["isAdmin"])
	}
	prefsBody, _ := body["prefs"].(map[string]any)
	favs, _ := prefsBody["favs"].([]any)
	if len(favs) != 1 || favs[0] != "karina" {
		t.Errorf("prefs = %v", body["prefs"])
	}
	// セッションIDはレスポンスに載せない
	if _, present := body["id"]; present {
		t.Error("session id must not be exposed")
	}
}
