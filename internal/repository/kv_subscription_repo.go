package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// KVSubscriptionRepo は購読一覧を user_subscriptions キーに保存するSubscriptionRepository実装。
type KVSubscriptionRepo struct {
	store KeyValueStore
	mu    sync.Mutex
}

// NewKVSubscriptionRepo はKVSubscriptionRepoの新しいインスタンスを生成する。
func NewKVSubscriptionRepo(store KeyValueStore) *KVSubscriptionRepo {
	return &KVSubscriptionRepo{store: store}
}

// List は保存済みの購読一覧を返す。
func (r *KVSubscriptionRepo) List(ctx context.Context) ([]model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Update は購読一覧をfnで置き換える。
func (r *KVSubscriptionRepo) Update(ctx context.Context, fn func([]model.Subscription) ([]model.Subscription, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		next = []model.Subscription{}
	}
	return saveJSON(ctx, r.store, KeySubscriptions, next)
}

// Clear は購読一覧を削除する。
func (r *KVSubscriptionRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, KeySubscriptions)
}

func (r *KVSubscriptionRepo) load(ctx context.Context) ([]model.Subscription, error) {
	var subs []model.Subscription
	if _, err := loadJSON(ctx, r.store, KeySubscriptions, &subs); err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	return subs, nil
}

var _ SubscriptionRepository = (*KVSubscriptionRepo)(nil)
