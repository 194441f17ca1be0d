package repository

import (
	"context"
	"sync"
	"time"
)

// memoryEntry はメモリストアの1エントリ。
type memoryEntry struct {
	value     []byte
	expiresAt time.Time // ゼロ値は無期限
}

// MemoryKVRepo はプロセス内メモリのキーバリューリポジトリ。
// ローカル開発（STORE_DRIVER=memory）とサービス層のテストで使用する。
// 永続化されないため本番では使用しないこと。
type MemoryKVRepo struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryKVRepo はMemoryKVRepoを生成する。
func NewMemoryKVRepo() *MemoryKVRepo {
	return &MemoryKVRepo{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get は指定キーの値を取得する。期限切れエントリはnilを返す。
func (r *MemoryKVRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(r.now()) {
		return nil, nil
	}

	// 内部バッファへの書き込みを防ぐためコピーを返す
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Put は指定キーに値を無期限で書き込む。
func (r *MemoryKVRepo) Put(ctx context.Context, key string, value []byte) error {
	return r.PutTTL(ctx, key, value, 0)
}

// PutTTL は指定キーに有効期限付きで値を書き込む。
func (r *MemoryKVRepo) PutTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)

	entry := memoryEntry{value: v}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry
	return nil
}

// Delete は指定キーを削除する。
func (r *MemoryKVRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}

// compile-time interface check
var _ KVRepository = (*MemoryKVRepo)(nil)
