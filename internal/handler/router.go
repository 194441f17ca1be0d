package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
	"github.com/hitoshi/fanhub/internal/security"
)

// HealthChecker はバックエンドストアの死活確認インターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionReader      middleware.SessionReader
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	StatusRecorder     middleware.HTTPStatusRecorder // nil可

	// 運用エンドポイント
	HealthChecker  HealthChecker // nil可（インメモリ構成では常にok）
	MetricsHandler http.Handler  // nil可

	// 認証
	Verifier   CredentialVerifier
	Sessions   SessionManager
	AuthConfig AuthHandlerConfig

	// ドメインサービス
	ConfessionService ConfessionServiceInterface
	DiaryService      DiaryServiceInterface
	PrefsService      PrefsServiceInterface
	VoteService       VoteServiceInterface
	GalleryService    GalleryServiceInterface
	LiveService       LiveServiceInterface

	// 画像プロキシ
	SSRFGuard   security.SSRFGuardService
	ImageConfig ImageHandlerConfig

	// メトリクス（nil可）
	Metrics MetricsRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Session → RateLimit(General)
//
// リクエストログはアプリ起動側でルーター全体を包んで出力する。
//
// セッションミドルウェアは注入のみを行い、認可はルートごとの
// RequireSession / RequireAdmin で強制する。投稿系エンドポイントには
// 追加の投稿専用レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewSessionMiddleware(deps.SessionReader))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	authHandler := NewAuthHandler(deps.Verifier, deps.Sessions, deps.PrefsService, deps.AuthConfig, deps.Metrics)
	confessionHandler := NewConfessionHandler(deps.ConfessionService)
	diaryHandler := NewDiaryHandler(deps.DiaryService)
	prefsHandler := NewPrefsHandler(deps.PrefsService)
	voteHandler := NewVoteHandler(deps.VoteService, deps.Metrics)
	galleryHandler := NewGalleryHandler(deps.GalleryService)
	liveHandler := NewLiveHandler(deps.LiveService)
	imageHandler := NewImageHandler(deps.SSRFGuard, deps.ImageConfig, deps.Metrics)

	writeLimit := deps.RateLimiter.WriteMiddleware()

	// 未定義ルートも統一エラーフォーマットで返す
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, model.NewNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, model.NewNotFoundError())
	})

	// 死活確認（Dockerヘルスチェックのhealthcheckサブコマンドが叩く）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// セッション・認証
	r.Get("/session", authHandler.Session)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/google", authHandler.GoogleLogin)
		r.Post("/google/redirect", authHandler.GoogleRedirect)
		r.Post("/logout", authHandler.Logout)
	})

	// 告白板（投稿は匿名可、削除は管理者のみ）
	r.Route("/confession", func(r chi.Router) {
		r.Get("/", confessionHandler.List)
		r.With(writeLimit).Post("/", confessionHandler.Create)
		r.With(middleware.RequireAdmin()).Delete("/{id}", confessionHandler.Delete)
	})

	// 応援日記（本人のみ）
	r.Route("/diary", func(r chi.Router) {
		r.Use(middleware.RequireSession())
		r.Get("/", diaryHandler.List)
		r.With(writeLimit).Post("/", diaryHandler.Create)
		r.Delete("/{id}", diaryHandler.Delete)
	})

	// ユーザー設定
	r.With(middleware.RequireSession()).Post("/prefs/fav", prefsHandler.AddFavorite)

	// 月間投票
	r.Route("/vote", func(r chi.Router) {
		r.With(middleware.RequireSession(), writeLimit).Post("/", voteHandler.Cast)
		r.Get("/state", voteHandler.State)
		r.Get("/results", voteHandler.Results)
	})

	// ギャラリー（閲覧は誰でも、登録は管理者のみ）
	r.Route("/gallery", func(r chi.Router) {
		r.Get("/", galleryHandler.Items)
		r.With(middleware.RequireAdmin()).Post("/pin", galleryHandler.Pin)
		r.With(middleware.RequireAdmin()).Post("/seed", galleryHandler.Seed)
	})

	// ライブ状態（閲覧は誰でも、切り替えは管理者のみ）
	r.Route("/live", func(r chi.Router) {
		r.Get("/", liveHandler.List)
		r.With(middleware.RequireAdmin()).Post("/", liveHandler.Set)
	})

	// 画像プロキシ
	r.Get("/img", imageHandler.Proxy)

	return r
}
