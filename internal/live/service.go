// Package live はライブ配信中メンバーのオン/オフフラグのドメインロジックを提供する。
package live

import (
	"context"
	"fmt"
	"sort"

	"github.com/hitoshi/fanhub/internal/kv"
)

// Service はライブ状態のサービス層。
// 状態は集合だが、ストアにはソート済みリストとして保存する。
// 同じ集合は常に同じ表現になり、トグルが冪等になる。
type Service struct {
	store *kv.Store
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store *kv.Store) *Service {
	return &Service{store: store}
}

// List はライブ中のメンバーキーを昇順で返す。
// ストア読み取り失敗時は空リストに縮退する。
func (s *Service) List(ctx context.Context) []string {
	return kv.GetJSON(ctx, s.store, kv.LiveListKey, []string{})
}

// Set はメンバーのライブ状態を設定する。
// on=trueで追加、on=falseで除去。どちらも冪等で、既に目的の状態
// であっても成功する。
func (s *Service) Set(ctx context.Context, key string, on bool) error {
	set := map[string]struct{}{}
	for _, k := range s.List(ctx) {
		set[k] = struct{}{}
	}
	if on {
		set[key] = struct{}{}
	} else {
		delete(set, key)
	}

	list := make([]string, 0, len(set))
	for k := range set {
		list = append(list, k)
	}
	sort.Strings(list)

	if err := s.store.PutJSON(ctx, kv.LiveListKey, list); err != nil {
		return fmt.Errorf("failed to save live list: %w", err)
	}
	return nil
}
