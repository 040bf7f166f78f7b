// Package settings は認証情報とメール送信設定の管理を提供する。
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/repository"
)

// View は画面表示用にマスクした設定内容。
type View struct {
	OpenAIKeySet  bool     `json:"openai_key_set"`
	OpenAIKeyHint string   `json:"openai_key_hint,omitempty"`
	ServiceID     string   `json:"service_id"`
	TemplateID    string   `json:"template_id"`
	PublicKey     string   `json:"public_key"`
	MailComplete  bool     `json:"mail_complete"`
	MailMissing   []string `json:"mail_missing"`
}

// Service は設定管理のサービス層。
type Service struct {
	settingsRepo repository.SettingsRepository
	subRepo      repository.SubscriptionRepository
	historyRepo  repository.HistoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	settingsRepo repository.SettingsRepository,
	subRepo repository.SubscriptionRepository,
	historyRepo repository.HistoryRepository,
) *Service {
	return &Service{
		settingsRepo: settingsRepo,
		subRepo:      subRepo,
		historyRepo:  historyRepo,
	}
}

// Credentials は保存済みの認証情報を返す。
func (s *Service) Credentials(ctx context.Context) (model.Credentials, error) {
	creds, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	return creds, nil
}

// Get はAPIキーをマスクした設定内容を返す。
func (s *Service) Get(ctx context.Context) (*View, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	missing := creds.Mail.Missing()
	if missing == nil {
		missing = []string{}
	}
	return &View{
		OpenAIKeySet:  creds.OpenAIKey != "",
		OpenAIKeyHint: maskKey(creds.OpenAIKey),
		ServiceID:     creds.Mail.ServiceID,
		TemplateID:    creds.Mail.TemplateID,
		PublicKey:     creds.Mail.PublicKey,
		MailComplete:  len(missing) == 0,
		MailMissing:   missing,
	}, nil
}

// SaveOpenAIKey はAPIキーを保存する。空の場合はEMPTY_API_KEYを返す。
func (s *Service) SaveOpenAIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.NewEmptyAPIKeyError()
	}
	if err := s.settingsRepo.SaveOpenAIKey(ctx, key); err != nil {
		return fmt.Errorf("APIキーの保存に失敗しました: %w", err)
	}
	return nil
}

// SaveMailSettings はメールリレー設定を上書き保存する。
func (s *Service) SaveMailSettings(ctx context.Context, mail model.MailSettings) error {
	mail = model.MailSettings{
		ServiceID:  strings.TrimSpace(mail.ServiceID),
		TemplateID: strings.TrimSpace(mail.TemplateID),
		PublicKey:  strings.TrimSpace(mail.PublicKey),
	}
	if err := s.settingsRepo.SaveMailSettings(ctx, mail); err != nil {
		return fmt.Errorf("メール設定の保存に失敗しました: %w", err)
	}
	return nil
}

// ClearAll は認証情報、購読、配信履歴をすべて削除する。
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.settingsRepo.Clear(ctx); err != nil {
		return fmt.Errorf("設定の削除に失敗しました: %w", err)
	}
	if err := s.subRepo.Clear(ctx); err != nil {
		return fmt.Errorf("購読の削除に失敗しました: %w", err)
	}
	if err := s.historyRepo.Clear(ctx); err != nil {
		return fmt.Errorf("配信履歴の削除に失敗しました: %w", err)
	}
	return nil
}

// maskKey はキーの末尾4文字のみを残してマスクする。
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return "****" + string(r[len(r)-4:])
}
