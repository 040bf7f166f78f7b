package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresKVStore はPostgreSQLのkv_storeテーブルを使ったKeyValueStore実装。
type PostgresKVStore struct {
	db *sql.DB
}

// NewPostgresKVStore はPostgresKVStoreの新しいインスタンスを生成する。
func NewPostgresKVStore(db *sql.DB) *PostgresKVStore {
	return &PostgresKVStore{db: db}
}

// Get は指定キーの値を取得する。見つからない場合はfalseを返す。
func (s *PostgresKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("値の取得に失敗しました (key=%s): %w", key, err)
	}
	return value, true, nil
}

// Set は指定キーに値をUPSERTする。
func (s *PostgresKVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("値の保存に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

// Delete は指定キーを削除する。
func (s *PostgresKVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("値の削除に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

var _ KeyValueStore = (*PostgresKVStore)(nil)
