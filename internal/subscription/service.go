// Package subscription は購読管理のドメインロジックを提供する。
package subscription

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/repository"
)

// Service は購読管理のサービス層。
// 購読一覧取得、登録（既存メールアドレスへのマージ）、削除のビジネスロジックを提供する。
type Service struct {
	subRepo repository.SubscriptionRepository
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(subRepo repository.SubscriptionRepository) *Service {
	return &Service{subRepo: subRepo, now: time.Now}
}

// List は保存済みの購読一覧を返す。
func (s *Service) List(ctx context.Context) ([]model.Subscription, error) {
	subs, err := s.subRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}
	return subs, nil
}

// Get はIDで購読を取得する。見つからない場合はSUBSCRIPTION_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Subscription, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].ID == id {
			return &subs[i], nil
		}
	}
	return nil, model.NewSubscriptionNotFoundError(id)
}

// Upsert は購読を登録する。
// 同じメールアドレス（大文字小文字を区別しない）の購読が既にあれば、
// キーワードとカテゴリを和集合でマージして更新する。
// 戻り値のboolは新規作成の場合true。
func (s *Service) Upsert(ctx context.Context, email string, keywords, categories []string) (*model.Subscription, bool, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, false, model.NewInvalidEmailError(email)
	}
	keywords = NormalizeKeywords(keywords)
	if len(keywords) == 0 {
		return nil, false, model.NewEmptyKeywordsError()
	}
	categories = NormalizeCategories(categories)
	if len(categories) == 0 {
		return nil, false, model.NewEmptyCategoriesError()
	}

	var result model.Subscription
	created := false
	err := s.subRepo.Update(ctx, func(subs []model.Subscription) ([]model.Subscription, error) {
		now := s.now().UTC()
		for i := range subs {
			if !strings.EqualFold(subs[i].Email, email) {
				continue
			}
			subs[i].Keywords = NormalizeKeywords(append(subs[i].Keywords, keywords...))
			subs[i].Categories = NormalizeCategories(append(subs[i].Categories, categories...))
			subs[i].LastUpdated = now
			result = subs[i]
			return subs, nil
		}

		result = model.Subscription{
			ID:          uuid.New().String(),
			Email:       email,
			Keywords:    keywords,
			Categories:  categories,
			Created:     now,
			LastUpdated: now,
		}
		created = true
		return append(subs, result), nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("購読の保存に失敗しました: %w", err)
	}

	return &result, created, nil
}

// Delete は購読を削除する。
// 削除した場合はtrue、該当IDが存在しない場合はfalseを返す。
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.subRepo.Update(ctx, func(subs []model.Subscription) ([]model.Subscription, error) {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.ID == id {
				removed = true
				continue
			}
			kept = append(kept, sub)
		}
		return kept, nil
	})
	if err != nil {
		return false, fmt.Errorf("購読の削除に失敗しました: %w", err)
	}
	return removed, nil
}

// ValidEmail はメールアドレスの形式を検証する。
// 表示名付きの形式は受け付けない。
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}

// NormalizeKeywords は前後の空白を除去し、空文字と重複（大文字小文字を区別しない）を取り除く。
// 重複時は最初の表記を残す。
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// NormalizeCategories は前後の空白を除去し、空文字と重複を取り除く。
func NormalizeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
