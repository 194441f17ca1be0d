// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/fanhub/internal/model"
)

// SessionCookieName はセッションIDを運ぶCookie名。
const SessionCookieName = "sid"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionReader はセッションの復元に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionReader interface {
	// Read はセッションIDからセッションを復元する。無効なIDはnilを返す。
	Read(ctx context.Context, sid string) *model.Session
}

// NewSessionMiddleware はCookieからセッションを読み取り、存在すれば
// リクエストコンテキストに注入するミドルウェアを返す。
// セッションがなくてもリクエストは通す。認可の強制は
// RequireSession / RequireAdmin が行う。
func NewSessionMiddleware(reader SessionReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := reader.Read(r.Context(), cookie.Value)
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession は認証済みセッションを要求するミドルウェアを返す。
// 未ログインには401を返す。NewSessionMiddlewareの後に配置する。
func RequireSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) == nil {
				WriteError(w, model.NewLoginRequiredError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin は管理者セッションを要求するミドルウェアを返す。
// 未ログインには401、非管理者には403を返す。
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				WriteError(w, model.NewLoginRequiredError())
				return
			}
			if !sess.IsAdmin {
				WriteError(w, model.NewAdminRequiredError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// 未ログインの場合はnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
