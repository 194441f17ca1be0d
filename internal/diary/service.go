// Package diary はユーザーごとの応援日記のドメインロジックを提供する。
package diary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
	"github.com/hitoshi/fanhub/internal/security"
)

// タイトルと本文の最大文字数。超過分は拒否せず切り詰める。
const (
	maxTitleLength = 120
	maxBodyLength  = 4000
)

// Service は応援日記のサービス層。
// 日記はセッションのメールアドレスでスコープされ、他人のリストには
// 一切触れられない。メールアドレスは常にセッション由来であること
// （クライアント指定値を渡さないこと）が呼び出し側の責務。
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

// List は指定ユーザーの日記を新着順で返す。
// ストア読み取り失敗時は空リストに縮退する。
func (s *Service) List(ctx context.Context, email string) []model.DiaryEntry {
	return kv.GetJSON(ctx, s.store, kv.DiaryKey(email), []model.DiaryEntry{})
}

// Create は日記を作成してリストの先頭に追加する。
// タイトル・本文ともHTMLタグを除去し、上限を超える部分は切り詰める。
// 空のタイトル・本文も許容する（下書き相当の運用を妨げない）。
func (s *Service) Create(ctx context.Context, email, title, body string) (*model.DiaryEntry, error) {
	entry := model.DiaryEntry{
		ID:    uuid.New().String(),
		Ts:    s.now().UnixMilli(),
		Title: truncateRunes(s.sanitizer.Sanitize(title), maxTitleLength),
		Body:  truncateRunes(s.sanitizer.Sanitize(body), maxBodyLength),
	}

	key := kv.DiaryKey(email)
	items := kv.GetJSON(ctx, s.store, key, []model.DiaryEntry{})
	items = append([]model.DiaryEntry{entry}, items...)
	if err := s.store.PutJSON(ctx, key, items); err != nil {
		return nil, fmt.Errorf("failed to save diary list: %w", err)
	}

	return &entry, nil
}

// Delete は指定ユーザーの日記をIDで削除する。
// 存在しないIDの削除は成功扱い（冪等）。他ユーザーのIDを指定しても
// 自分のリストからしか消えない。
func (s *Service) Delete(ctx context.Context, email, id string) error {
	key := kv.DiaryKey(email)
	items := kv.GetJSON(ctx, s.store, key, []model.DiaryEntry{})
	filtered := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			filtered = append(filtered, it)
		}
	}
	if err := s.store.PutJSON(ctx, key, filtered); err != nil {
		return fmt.Errorf("failed to save diary list: %w", err)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
