// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 管理者リストやオリジン許可リストも実行中には変更されない。
type Config struct {
	// Store
	StoreDriver string // "postgres" または "memory"（開発・テスト用）
	DatabaseURL string

	// Identity
	GoogleClientID string
	TokenInfoURL   string // テスト用にオーバーライド可能

	// Authorization
	AdminEmails []string // 小文字正規化済みの管理者メールアドレス

	// Session
	SessionMaxAge int // セッション有効期間（秒）

	// CORS
	AllowedOrigins []string

	// Auth redirect flow
	LoginRedirectURL string

	// Vote
	VoteTimezone string // 月次バケット境界のIANAタイムゾーン

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitWrite   int

	// Image Proxy
	ImageProxyTimeout time.Duration
	ImageProxyMaxSize int64

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.StoreDriver = getEnvString("STORE_DRIVER", "postgres")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.TokenInfoURL = getEnvString("TOKENINFO_URL", defaultTokenInfoURL)
	cfg.AdminEmails = normalizeList(os.Getenv("ADMIN_EMAILS"), true)
	cfg.AllowedOrigins = normalizeList(os.Getenv("ALLOWED_ORIGINS"), false)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 2592000) // 30日
	cfg.LoginRedirectURL = getEnvString("LOGIN_REDIRECT_URL", "/")
	cfg.VoteTimezone = getEnvString("VOTE_TIMEZONE", "Asia/Seoul")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 10)
	cfg.ImageProxyTimeout = getEnvDuration("IMAGE_PROXY_TIMEOUT", 10*time.Second)
	cfg.ImageProxyMaxSize = getEnvInt64("IMAGE_PROXY_MAX_SIZE", 5242880)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", true)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

// normalizeList はカンマ区切りの環境変数値をスライスに分解する。
// 空要素は除去し、lowerがtrueの場合は小文字に正規化する。
func normalizeList(raw string, lower bool) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
