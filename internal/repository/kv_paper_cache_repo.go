package repository

import (
	"context"
	"time"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// KVPaperCacheRepo はカテゴリごとのフェッチ結果を papers_<category> キーに保存する。
type KVPaperCacheRepo struct {
	store KeyValueStore
}

// NewKVPaperCacheRepo はKVPaperCacheRepoの新しいインスタンスを生成する。
func NewKVPaperCacheRepo(store KeyValueStore) *KVPaperCacheRepo {
	return &KVPaperCacheRepo{store: store}
}

// Get はカテゴリのキャッシュを返す。存在しない場合はnilを返す。
func (r *KVPaperCacheRepo) Get(ctx context.Context, category string) (*model.CachedPapers, error) {
	var cached model.CachedPapers
	ok, err := loadJSON(ctx, r.store, PaperCacheKey(category), &cached)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cached, nil
}

// Put はカテゴリのキャッシュを保存する。タイムスタンプはミリ秒で記録する。
func (r *KVPaperCacheRepo) Put(ctx context.Context, category string, papers []model.Paper, fetchedAt time.Time) error {
	return saveJSON(ctx, r.store, PaperCacheKey(category), model.CachedPapers{
		Timestamp: fetchedAt.UnixMilli(),
		Data:      papers,
	})
}

var _ PaperCacheRepository = (*KVPaperCacheRepo)(nil)
