package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// KVHistoryRepo は配信済みリンクを paper_history キーに保存するHistoryRepository実装。
// 履歴は追記のみで、個別の削除は行わない。
type KVHistoryRepo struct {
	store KeyValueStore
	mu    sync.Mutex
}

// NewKVHistoryRepo はKVHistoryRepoの新しいインスタンスを生成する。
func NewKVHistoryRepo(store KeyValueStore) *KVHistoryRepo {
	return &KVHistoryRepo{store: store}
}

// Links は宛先の配信済みリンク集合を返す。
func (r *KVHistoryRepo) Links(ctx context.Context, email string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(history[email]))
	for _, link := range history[email] {
		set[link] = struct{}{}
	}
	return set, nil
}

// Add は宛先の履歴に未登録のリンクだけを追記する。
func (r *KVHistoryRepo) Add(ctx context.Context, email string, links []string) error {
	if len(links) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.load(ctx)
	if err != nil {
		return err
	}

	existing := history[email]
	seen := make(map[string]struct{}, len(existing)+len(links))
	for _, link := range existing {
		seen[link] = struct{}{}
	}
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		existing = append(existing, link)
	}
	history[email] = existing

	return saveJSON(ctx, r.store, KeyHistory, history)
}

// Clear は全宛先の履歴を削除する。
func (r *KVHistoryRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, KeyHistory)
}

func (r *KVHistoryRepo) load(ctx context.Context) (model.History, error) {
	history := model.History{}
	if _, err := loadJSON(ctx, r.store, KeyHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = model.History{}
	}
	return history, nil
}

var _ HistoryRepository = (*KVHistoryRepo)(nil)
