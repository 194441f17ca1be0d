// Package prefs はユーザー設定（推しメンバーのお気に入り）のドメインロジックを提供する。
package prefs

import (
	"context"
	"fmt"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
)

// Service はユーザー設定のサービス層。
// 設定はuser:{email}文書にのみ保存する。セッションレコードには
// 複製しない（セッションは認証情報のみを持つ）。
type Service struct {
	store *kv.Store
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store *kv.Store) *Service {
	return &Service{store: store}
}

// Get は指定ユーザーの設定を返す。
// 未設定・ストア読み取り失敗時は空のお気に入りリストに縮退する。
func (s *Service) Get(ctx context.Context, email string) model.Prefs {
	prefs := kv.GetJSON(ctx, s.store, kv.UserKey(email), model.Prefs{Favs: []string{}})
	if prefs.Favs == nil {
		prefs.Favs = []string{}
	}
	return prefs
}

// AddFavorite はメンバーキーをお気に入りに追加し、更新後の設定を返す。
// 既に登録済みのキーは重複追加しない（冪等）。
func (s *Service) AddFavorite(ctx context.Context, email, key string) (model.Prefs, error) {
	prefs := s.Get(ctx, email)
	for _, fav := range prefs.Favs {
		if fav == key {
			return prefs, nil
		}
	}
	prefs.Favs = append(prefs.Favs, key)
	if err := s.store.PutJSON(ctx, kv.UserKey(email), prefs); err != nil {
		return model.Prefs{}, fmt.Errorf("failed to save user prefs: %w", err)
	}
	return prefs, nil
}
