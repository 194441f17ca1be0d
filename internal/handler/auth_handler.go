// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// SessionManager は認証ハンドラーが必要とするセッション操作のインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionManager interface {
	Create(ctx context.Context, user model.User) (string, error)
	Destroy(ctx context.Context, sid string) error
}

// CredentialVerifier はIDトークン検証のインターフェース。
// auth.TokenVerifierと同形だが、ハンドラー側の要求として再宣言する。
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*model.User, error)
}

// PrefsReader は/sessionレスポンスに載せるユーザー設定の読み出しインターフェース。
type PrefsReader interface {
	Get(ctx context.Context, email string) model.Prefs
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    int    // セッションCookieの有効期間（秒）
	LoginRedirectURL string // リダイレクトフロー成功後の戻り先
}

// AuthHandler はサインイン・セッション関連のHTTPハンドラー。
//
// ブラウザのGoogle Identity Servicesがcredential（IDトークン）を取得し、
// このハンドラーは検証とセッション発行のみを担当する。OAuthの認可コード
// フローは使用しない。
type AuthHandler struct {
	verifier CredentialVerifier
	sessions SessionManager
	prefs    PrefsReader
	config   AuthHandlerConfig
	metrics  MetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(verifier CredentialVerifier, sessions SessionManager, prefs PrefsReader, config AuthHandlerConfig, metrics MetricsRecorder) *AuthHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &AuthHandler{
		verifier: verifier,
		sessions: sessions,
		prefs:    prefs,
		config:   config,
		metrics:  metrics,
	}
}

// sessionBody は/sessionの認証済みレスポンス。
type sessionBody struct {
	User    model.User  `json:"user"`
	Ts      int64       `json:"ts"`
	IsAdmin bool        `json:"isAdmin"`
	Prefs   model.Prefs `json:"prefs"`
}

// Session は現在のセッションを返す。未ログインの場合は空オブジェクト。
// GET /session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	writeJSON(w, http.StatusOK, sessionBody{
		User:    sess.User,
		Ts:      sess.Ts,
		IsAdmin: sess.IsAdmin,
		Prefs:   h.prefs.Get(r.Context(), sess.User.Email),
	})
}

// GoogleLogin はcredentialを検証してセッションを発行する。
// POST /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.login(w, r); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}

// GoogleRedirect はリダイレクトモードのサインインを処理する。
// 成功時は設定された戻り先へリダイレクトし、失敗時は最小限のHTML
// エラーページを表示する（このリクエストの呼び出し元はブラウザ遷移
// であり、JSONを解釈する相手がいないため）。
// POST /auth/google/redirect
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if err := h.login(w, r); err != nil {
		h.renderLoginError(w, err)
		return
	}
	http.Redirect(w, r, h.config.LoginRedirectURL, http.StatusSeeOther)
}

// login はcredential抽出、検証、セッション発行、Cookie設定を行う。
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) error {
	credential := extractCredential(r)

	user, err := h.verifier.Verify(r.Context(), credential)
	if err != nil {
		h.metrics.RecordLoginFailure(loginFailureReason(err))
		return err
	}

	sid, err := h.sessions.Create(r.Context(), *user)
	if err != nil {
		h.metrics.RecordLoginFailure("session create failed")
		return err
	}

	h.setSessionCookie(w, sid, h.config.SessionMaxAge)
	h.metrics.RecordLoginSuccess()
	return nil
}

// Logout はセッションを破棄してCookieをクリアする。
// セッションがなくても成功する（冪等）。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if destroyErr := h.sessions.Destroy(r.Context(), cookie.Value); destroyErr != nil {
			// 破棄に失敗してもCookieはクリアする
			slog.Error("failed to destroy session", slog.String("error", destroyErr.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	writeOK(w)
}

// extractCredential はContent-Typeに応じてcredentialを取り出す。
// フォームエンコード（GISのデフォルト）とJSONの両方を受け付ける。
func extractCredential(r *http.Request) string {
	ctype := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ctype, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.PostFormValue("credential")
	case strings.Contains(ctype, "application/json"):
		var body struct {
			Credential string `json:"credential"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Credential
	default:
		return ""
	}
}

// setSessionCookie はセッションCookieを設定する。
// フロントエンドは別オリジンでホストされるためSameSite=Noneが必須で、
// その条件としてSecureも付ける。maxAge < 0 で削除。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sid string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sid,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// loginFailureReason はメトリクスのreasonラベルを決める。
func loginFailureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "internal error"
}

var loginErrorTemplate = template.Must(template.New("login_error").Parse(`<!doctype html>
<html lang="ko">
<head><meta charset="utf-8"><title>로그인 실패</title></head>
<body>
<h1>로그인에 실패했습니다</h1>
<p>{{.Reason}}</p>
<p><a href="{{.BackURL}}">돌아가기</a></p>
</body>
</html>
`))

// renderLoginError はリダイレクトフローの失敗をHTMLで表示する。
func (h *AuthHandler) renderLoginError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	reason := "internal error"
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		reason = apiErr.Code
	} else {
		slog.Error("redirect login failed", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if execErr := loginErrorTemplate.Execute(w, map[string]string{
		"Reason":  reason,
		"BackURL": h.config.LoginRedirectURL,
	}); execErr != nil {
		slog.Error("failed to render login error page", slog.String("error", execErr.Error()))
	}
}
