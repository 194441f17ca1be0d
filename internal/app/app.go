// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/fanhub/internal/auth"
	"github.com/hitoshi/fanhub/internal/confession"
	"github.com/hitoshi/fanhub/internal/config"
	"github.com/hitoshi/fanhub/internal/database"
	"github.com/hitoshi/fanhub/internal/diary"
	"github.com/hitoshi/fanhub/internal/gallery"
	"github.com/hitoshi/fanhub/internal/handler"
	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/live"
	"github.com/hitoshi/fanhub/internal/logger"
	"github.com/hitoshi/fanhub/internal/metrics"
	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/prefs"
	"github.com/hitoshi/fanhub/internal/repository"
	"github.com/hitoshi/fanhub/internal/security"
	"github.com/hitoshi/fanhub/internal/vote"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. KVストアのバックエンドを開く
	var repo repository.KVRepository
	var health handler.HealthChecker

	switch cfg.StoreDriver {
	case "memory":
		// 開発・テスト用。プロセス終了で全データが消える。
		repo = repository.NewMemoryKVRepo()
		slog.Warn("using in-memory store, data will not survive restarts")
	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("database connection established")
		repo = repository.NewPostgresKVRepo(db)
		health = db
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	store := kv.NewStore(repo, collector)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 4. ドメインサービスの初期化
	verifier := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		ClientID:     cfg.GoogleClientID,
		TokenInfoURL: cfg.TokenInfoURL,
	})
	authService := auth.NewService(store, auth.ServiceConfig{
		AdminEmails:   cfg.AdminEmails,
		SessionMaxAge: cfg.SessionMaxAge,
	})

	loc, err := time.LoadLocation(cfg.VoteTimezone)
	if err != nil {
		slog.Warn("invalid vote timezone, falling back to UTC",
			slog.String("timezone", cfg.VoteTimezone),
		)
		loc = time.UTC
	}

	// 5. レート制限（configはreq/min単位、rate.Limitはreq/sec単位）
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		WriteRate:       rate.Limit(float64(cfg.RateLimitWrite) / 60.0),
		WriteBurst:      cfg.RateLimitWrite,
		CleanupInterval: 5 * time.Minute,
	})
	defer limiter.Stop()

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		SessionReader:      authService,
		CORSAllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:        limiter,
		StatusRecorder:     collector,

		HealthChecker:  health,
		MetricsHandler: metrics.SetupMetricsRoute(registry),

		Verifier: verifier,
		Sessions: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:     cfg.CookieDomain,
			CookieSecure:     cfg.CookieSecure,
			SessionMaxAge:    cfg.SessionMaxAge,
			LoginRedirectURL: cfg.LoginRedirectURL,
		},

		ConfessionService: confession.NewService(store, sanitizer),
		DiaryService:      diary.NewService(store, sanitizer),
		PrefsService:      prefs.NewService(store),
		VoteService:       vote.NewService(store, loc),
		GalleryService:    gallery.NewService(store, ssrfGuard),
		LiveService:       live.NewService(store),

		SSRFGuard: ssrfGuard,
		ImageConfig: handler.ImageHandlerConfig{
			Timeout: cfg.ImageProxyTimeout,
			MaxSize: cfg.ImageProxyMaxSize,
		},

		Metrics: collector,
	})

	// 7. リクエストログはルーター全体に適用する
	wrapped := middleware.NewLoggingMiddleware(slog.Default())(router)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      wrapped,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreDriver == "memory" {
		slog.Info("in-memory store does not require migrations")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
