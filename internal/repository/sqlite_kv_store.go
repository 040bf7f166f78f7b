package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteKVStore はSQLiteのkv_storeテーブルを使ったKeyValueStore実装。
// スキーマはdatabase.OpenSQLiteで適用済みであること。
type SQLiteKVStore struct {
	db *sql.DB
}

// NewSQLiteKVStore はSQLiteKVStoreの新しいインスタンスを生成する。
func NewSQLiteKVStore(db *sql.DB) *SQLiteKVStore {
	return &SQLiteKVStore{db: db}
}

func (s *SQLiteKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("値の取得に失敗しました (key=%s): %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("値の保存に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

func (s *SQLiteKVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("値の削除に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

var _ KeyValueStore = (*SQLiteKVStore)(nil)
