// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"
)

// KVRepository はキーバリューストアの永続化インターフェース。
// 値はJSONエンコード済みのバイト列として扱い、スキーマは上位層（internal/kv）が持つ。
// キーの不存在はエラーではなく (nil, nil) で表現する。
type KVRepository interface {
	// Get は指定キーの値を取得する。キーが存在しない、または期限切れの場合はnilを返す。
	Get(ctx context.Context, key string) ([]byte, error)

	// Put は指定キーに値を書き込む（無期限）。既存キーは上書きされる。
	Put(ctx context.Context, key string, value []byte) error

	// PutTTL は指定キーに有効期限付きで値を書き込む。
	// ttlが0以下の場合はPutと同じく無期限になる。
	PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete は指定キーを削除する。存在しないキーの削除はエラーにならない（冪等）。
	Delete(ctx context.Context, key string) error
}
