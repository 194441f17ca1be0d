// Package vote は月間人気投票のドメインロジックを提供する。
package vote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/fanhub/internal/kv"
	"github.com/hitoshi/fanhub/internal/model"
)

// Service は月間投票のサービス層。
//
// 投票は年月バケット（YYYY-MM）単位で管理され、ひとりのユーザーは
// 同一バケットに1票のみ投じられる。投票者マップ（メール→投票先キー）が
// 権威的なゲートで、集計マップは投票成立のたびに増分更新される。
// ストアに複数キートランザクションがないため、投票者マップ書き込みと
// 集計マップ書き込みの間でプロセスが落ちると集計が1票少なくなる。
// 集計読み出し時の再計算は行わず、このドリフトは許容する。
type Service struct {
	store *kv.Store
	loc   *time.Location
	now   func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// locは投票月の判定に使うタイムゾーン。月替わりの境界はこのゾーンで決まる。
func NewService(store *kv.Store, loc *time.Location) *Service {
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

// Bucket は現在の投票バケット（YYYY-MM）を返す。
func (s *Service) Bucket() string {
	return s.now().In(s.loc).Format("2006-01")
}

// Cast は指定ユーザーの1票を投じる。
// 同一バケットに既に投票済みの場合はAlreadyVotedエラーを返し、
// 集計は変化しない。
func (s *Service) Cast(ctx context.Context, email, key string) error {
	bucket := s.Bucket()
	usersKey := kv.VoteUsersKey(bucket)

	users := kv.GetJSON(ctx, s.store, usersKey, map[string]string{})
	if _, voted := users[email]; voted {
		return model.NewAlreadyVotedError()
	}
	users[email] = key
	if err := s.store.PutJSON(ctx, usersKey, users); err != nil {
		return fmt.Errorf("failed to save vote users: %w", err)
	}

	countsKey := kv.VoteCountsKey(bucket)
	counts := kv.GetJSON(ctx, s.store, countsKey, map[string]int{})
	counts[key]++
	if err := s.store.PutJSON(ctx, countsKey, counts); err != nil {
		return fmt.Errorf("failed to save vote counts: %w", err)
	}

	return nil
}

// State は現在バケットの投票状態を返す。
// emailが空（未ログイン）の場合はvoted=falseとして扱う。
func (s *Service) State(ctx context.Context, email string) model.VoteState {
	bucket := s.Bucket()
	voted := false
	if email != "" {
		users := kv.GetJSON(ctx, s.store, kv.VoteUsersKey(bucket), map[string]string{})
		_, voted = users[email]
	}

	msg := "투표 기간: 매월 1일~말일 · 현재 " + bucket
	if voted {
		msg += " · 이미 투표 완료"
	} else {
		msg += " · 아직 투표 가능"
	}

	return model.VoteState{Message: msg, Voted: voted}
}

// Results は現在バケットの集計を票数降順で返す。
// 同数の場合はキーの昇順で安定させる。
func (s *Service) Results(ctx context.Context) []model.VoteResult {
	counts := kv.GetJSON(ctx, s.store, kv.VoteCountsKey(s.Bucket()), map[string]int{})

	results := make([]model.VoteResult, 0, len(counts))
	for key, count := range counts {
		results = append(results, model.VoteResult{Key: key, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Key < results[j].Key
	})
	return results
}
