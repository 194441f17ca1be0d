// Package kv はキーバリューストア上の型付きJSONアクセス層を提供する。
//
// 読み取りは常にフェイルソフト: キー不存在、ストア障害、デコード失敗の
// いずれの場合も呼び出し側が指定したデフォルト値に退避し、エラーを
// ハンドラーまで伝播させない。空のコレクションは正常な状態であり、
// ストアの一時障害は「空」として縮退する。
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fanhub/internal/repository"
)

// FallbackRecorder は読み取りフォールバック発生の計測インターフェース。
type FallbackRecorder interface {
	RecordKVReadFallback(key string)
}

// Store はKVRepositoryにJSONエンコード・デコードを重ねたアクセス層。
type Store struct {
	repo     repository.KVRepository
	recorder FallbackRecorder // nilの場合は計測しない
}

// NewStore はStoreを生成する。recorderはnilでもよい。
func NewStore(repo repository.KVRepository, recorder FallbackRecorder) *Store {
	return &Store{repo: repo, recorder: recorder}
}

// GetJSON は指定キーの値をT型にデコードして返す。
// キーが存在しない場合はdefをそのまま返す（正常系）。
// ストア読み取り失敗・デコード失敗の場合もdefに退避し、警告ログと計測のみ行う。
func GetJSON[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		s.fallback(key, "store read failed", err)
		return def
	}
	if raw == nil {
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.fallback(key, "decode failed", err)
		return def
	}
	return v
}

// PutJSON は値をJSONエンコードして指定キーに無期限で書き込む。
// 読み取りと異なり、書き込み失敗はエラーとして返す。
func (s *Store) PutJSON(ctx context.Context, key string, v interface{}) error {
	return s.PutJSONTTL(ctx, key, v, 0)
}

// PutJSONTTL は値をJSONエンコードして有効期限付きで書き込む。
func (s *Store) PutJSONTTL(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	if err := s.repo.PutTTL(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Delete は指定キーを削除する。存在しないキーの削除は成功扱い。
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// fallback は読み取りフォールバックを記録する。
func (s *Store) fallback(key, reason string, err error) {
	slog.Warn("kv read fallback to default",
		slog.String("key", key),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
	if s.recorder != nil {
		s.recorder.RecordKVReadFallback(key)
	}
}
