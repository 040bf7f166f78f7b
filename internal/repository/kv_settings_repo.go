package repository

import (
	"context"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// KVSettingsRepo は openai_api_key と email_settings キーを扱うSettingsRepository実装。
type KVSettingsRepo struct {
	store KeyValueStore
}

// NewKVSettingsRepo はKVSettingsRepoの新しいインスタンスを生成する。
func NewKVSettingsRepo(store KeyValueStore) *KVSettingsRepo {
	return &KVSettingsRepo{store: store}
}

// Load は保存済みの認証情報を返す。
func (r *KVSettingsRepo) Load(ctx context.Context) (model.Credentials, error) {
	var creds model.Credentials
	if _, err := loadJSON(ctx, r.store, KeyOpenAIKey, &creds.OpenAIKey); err != nil {
		return model.Credentials{}, err
	}
	if _, err := loadJSON(ctx, r.store, KeyEmailSettings, &creds.Mail); err != nil {
		return model.Credentials{}, err
	}
	return creds, nil
}

// SaveOpenAIKey はAPIキーを保存する。
func (r *KVSettingsRepo) SaveOpenAIKey(ctx context.Context, key string) error {
	return saveJSON(ctx, r.store, KeyOpenAIKey, key)
}

// SaveMailSettings はメールリレー設定を保存する。
func (r *KVSettingsRepo) SaveMailSettings(ctx context.Context, settings model.MailSettings) error {
	return saveJSON(ctx, r.store, KeyEmailSettings, settings)
}

// Clear はAPIキーとメールリレー設定を削除する。
func (r *KVSettingsRepo) Clear(ctx context.Context) error {
	for _, key := range []string{KeyOpenAIKey, KeyEmailSettings} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

var _ SettingsRepository = (*KVSettingsRepo)(nil)
