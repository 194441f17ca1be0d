// Package confession は告白板（匿名メッセージ一覧）のドメインロジックを提供する。
package confession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
	"github.com/hitoshi/fanhub/internal/security"
)

// maxMessageLength はメッセージの最大文字数。超過分は拒否せず切り詰める。
const maxMessageLength = 2000

// Service は告白板のサービス層。
// 投稿は匿名（ログイン不要）、削除は管理者のみ。認可判定はハンドラー側で行う。
type Service struct {
	store     *kv.Store
	sanitizer security.TextSanitizerService
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store *kv.Store, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は全メッセージを新着順で返す。
// ストア読み取り失敗時は空リストに縮退する。
func (s *Service) List(ctx context.Context) []model.Confession {
	return kv.GetJSON(ctx, s.store, kv.ConfessionListKey, []model.Confession{})
}

// Create はメッセージを投稿する。
// HTMLタグと前後の空白を除去し、上限を超える部分は切り詰める。
// 結果が空文字列の場合はEmptyInputエラーを返す。
// リストへの追加はread-modify-writeで行うため、同時投稿で一方が
// 失われる競合窓が存在する（許容済み）。
func (s *Service) Create(ctx context.Context, message string) (*model.Confession, error) {
	msg := truncateRunes(strings.TrimSpace(s.sanitizer.Sanitize(message)), maxMessageLength)
	if msg == "" {
		return nil, model.NewEmptyInputError()
	}

	item := model.Confession{
		ID:      uuid.New().String(),
		Ts:      s.now().UnixMilli(),
		Message: msg,
	}

	items := kv.GetJSON(ctx, s.store, kv.ConfessionListKey, []model.Confession{})
	items = append([]model.Confession{item}, items...)
	if err := s.store.PutJSON(ctx, kv.ConfessionListKey, items); err != nil {
		return nil, fmt.Errorf("failed to save confession list: %w", err)
	}

	return &item, nil
}

// Delete はIDを指定してメッセージを削除する。
// 存在しないIDの削除は成功扱い（冪等）。
func (s *Service) Delete(ctx context.Context, id string) error {
	items := kv.GetJSON(ctx, s.store, kv.ConfessionListKey, []model.Confession{})
	filtered := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			filtered = append(filtered, it)
		}
	}
	if err := s.store.PutJSON(ctx, kv.ConfessionListKey, filtered); err != nil {
		return fmt.Errorf("failed to save confession list: %w", err)
	}
	return nil
}

// truncateRunes は文字数（rune数）ベースで文字列を切り詰める。
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
