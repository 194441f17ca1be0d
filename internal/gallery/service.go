// Package gallery はファンギャラリー（固定画像と候補プール）のドメインロジックを提供する。
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
	"github.com/hitoshi/fanhub/internal/security"
)

// displayCount はギャラリー表示の目標件数。
// 固定画像が足りない分を候補プールからのランダム抽出で埋める。
const displayCount = 3

const (
	pinTag     = "pin"
	seedTag    = "seed"
	pinCaption = "관리자 고정"
)

// Service はギャラリーのサービス層。
// 固定画像（pins）はメンバーキー→URLのマップで1メンバー1枚、
// 候補プール（seeds)は無順序リスト。表示リストの組み立ては
// 呼び出しごとにランダム抽出を行うため意図的に非決定的。
type Service struct {
	store *kv.Store
	guard security.SSRFGuardService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store *kv.Store, guard security.SSRFGuardService) *Service {
	return &Service{
		store: store,
		guard: guard,
	}
}

// Items は表示用ギャラリーを組み立てて返す。
// 全ての固定画像（メンバーキー昇順）に続けて、候補プールから
// 重複なしのランダム抽出で目標件数まで埋める。固定画像が目標件数
// 以上ある場合は候補を追加しない。
func (s *Service) Items(ctx context.Context) []model.GalleryItem {
	items := []model.GalleryItem{}

	pins := kv.GetJSON(ctx, s.store, kv.GalleryPinsKey, map[string]string{})
	members := make([]string, 0, len(pins))
	for member := range pins {
		members = append(members, member)
	}
	sort.Strings(members)
	for _, member := range members {
		items = append(items, model.GalleryItem{
			Member:     member,
			MemberName: member,
			URL:        pins[member],
			Tag:        pinTag,
			Caption:    pinCaption,
		})
	}

	if len(items) >= displayCount {
		return items
	}

	pool := kv.GetJSON(ctx, s.store, kv.GallerySeedsKey, []model.GalleryItem{})
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	need := displayCount - len(items)
	if need > len(pool) {
		need = len(pool)
	}
	return append(items, pool[:need]...)
}

// Pin はメンバーの固定画像を設定する。既存の固定は上書きされる。
// URLは保存前にSSRF検証を通す。内部アドレスを指すURLは管理者の
// 誤登録でも拒否する。
func (s *Service) Pin(ctx context.Context, member, url string) error {
	if err := s.guard.ValidateURL(url); err != nil {
		slog.Warn("rejected gallery pin URL", slog.String("error", err.Error()))
		return model.NewBadURLError()
	}

	pins := kv.GetJSON(ctx, s.store, kv.GalleryPinsKey, map[string]string{})
	pins[member] = url
	if err := s.store.PutJSON(ctx, kv.GalleryPinsKey, pins); err != nil {
		return fmt.Errorf("failed to save gallery pins: %w", err)
	}
	return nil
}

// Seed は候補プールに画像を追加する。
func (s *Service) Seed(ctx context.Context, member, url string) error {
	if err := s.guard.ValidateURL(url); err != nil {
		slog.Warn("rejected gallery seed URL", slog.String("error", err.Error()))
		return model.NewBadURLError()
	}

	seeds := kv.GetJSON(ctx, s.store, kv.GallerySeedsKey, []model.GalleryItem{})
	seeds = append(seeds, model.GalleryItem{
		Member:     member,
		MemberName: member,
		URL:        url,
		Tag:        seedTag,
		Caption:    "",
	})
	if err := s.store.PutJSON(ctx, kv.GallerySeedsKey, seeds); err != nil {
		return fmt.Errorf("failed to save gallery seeds: %w", err)
	}
	return nil
}
