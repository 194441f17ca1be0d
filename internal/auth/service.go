// Package auth はIDトークン検証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
)

// ServiceConfig はセッション管理の設定。
type ServiceConfig struct {
	AdminEmails   []string // 管理者メールアドレス（小文字正規化済み）
	SessionMaxAge int      // セッション有効期間（秒）
}

// Service はセッションの発行・読み出し・破棄を提供する。
//
// 管理者判定はセッションに保存せず、読み出しのたびに許可リストから
// 再計算する。許可リストの変更はデプロイ時の設定再読み込みで反映され、
// 既存セッションに再ログインなしで効く。
type Service struct {
	store  *kv.Store
	admins map[string]struct{}
	maxAge time.Duration
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(store *kv.Store, config ServiceConfig) *Service {
	admins := make(map[string]struct{}, len(config.AdminEmails))
	for _, e := range config.AdminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &Service{
		store:  store,
		admins: admins,
		maxAge: time.Duration(config.SessionMaxAge) * time.Second,
		now:    time.Now,
	}
}

// Create は検証済みユーザーのセッションを発行し、セッションIDを返す。
// セッションIDは128ビットの乱数で、呼び出し側がCookieに設定する。
func (s *Service) Create(ctx context.Context, user model.User) (string, error) {
	sid, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	record := model.SessionRecord{
		User: user,
		Ts:   s.now().UnixMilli(),
	}

	if err := s.store.PutJSONTTL(ctx, kv.SessionKey(sid), record, s.maxAge); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("session created", slog.String("email", user.Email))
	return sid, nil
}

// Read はセッションIDからセッションを復元する。
// ID未指定、レコード不存在、期限切れ、ストア障害、デコード失敗のいずれも
// nil（未ログイン扱い）に縮退する。ストア障害でリクエスト処理を
// 落とさないためのフェイルクローズ。
func (s *Service) Read(ctx context.Context, sid string) *model.Session {
	if sid == "" {
		return nil
	}

	record := kv.GetJSON[*model.SessionRecord](ctx, s.store, kv.SessionKey(sid), nil)
	if record == nil {
		return nil
	}

	return &model.Session{
		ID:      sid,
		User:    record.User,
		Ts:      record.Ts,
		IsAdmin: s.IsAdmin(record.User.Email),
	}
}

// Destroy はセッションを破棄する。存在しないセッションの破棄は成功扱い（冪等）。
func (s *Service) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.store.Delete(ctx, kv.SessionKey(sid)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	slog.Info("session destroyed")
	return nil
}

// IsAdmin はメールアドレスが管理者許可リストに含まれるかを返す。
// 比較は小文字正規化して行う。
func (s *Service) IsAdmin(email string) bool {
	_, ok := s.admins[strings.ToLower(email)]
	return ok
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
// 16バイト（128ビット）の乱数を16進数エンコードする。
func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
