package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// loadJSON はキーの値をJSONとしてdstにデコードする。キーが存在しない場合はfalseを返す。
func loadJSON(ctx context.Context, store KeyValueStore, key string, dst any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("保存データのデコードに失敗しました (key=%s): %w", key, err)
	}
	return true, nil
}

// saveJSON はvをJSONにエンコードしてキーに保存する。
func saveJSON(ctx context.Context, store KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("保存データのエンコードに失敗しました (key=%s): %w", key, err)
	}
	return store.Set(ctx, key, raw)
}
