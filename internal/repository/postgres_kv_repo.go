package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresKVRepo はPostgreSQLのkvテーブルを使用したキーバリューリポジトリ。
// 1キー1行で、値はJSONB列に格納する。複数キーにまたがるトランザクションは提供しない。
type PostgresKVRepo struct {
	db *sql.DB
}

// NewPostgresKVRepo はPostgresKVRepoを生成する。
func NewPostgresKVRepo(db *sql.DB) *PostgresKVRepo {
	return &PostgresKVRepo{db: db}
}

// Get は指定キーの値を取得する。期限切れの行は存在しないものとして扱う。
func (r *PostgresKVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}

	return value, nil
}

// Put は指定キーに値を無期限で書き込む。
func (r *PostgresKVRepo) Put(ctx context.Context, key string, value []byte) error {
	return r.PutTTL(ctx, key, value, 0)
}

// PutTTL は指定キーに有効期限付きで値を書き込む。
// 既存キーはUPSERTで上書きされ、有効期限も更新される。
func (r *PostgresKVRepo) PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt interface{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key)
		 DO UPDATE SET value = $2, expires_at = $3, updated_at = now()`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Delete は指定キーを削除する。
func (r *PostgresKVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// compile-time interface check
var _ KVRepository = (*PostgresKVRepo)(nil)
