// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// 永続化キー。値はすべてJSONエンコードされた不透明なBLOBとして保存する。
// スキーマのバージョニングは行わないため、形式の変更は既存データとの互換性を失う。
const (
	KeySubscriptions    = "user_subscriptions"
	KeyHistory          = "paper_history"
	KeyOpenAIKey        = "openai_api_key"
	KeyEmailSettings    = "email_settings"
	paperCacheKeyPrefix = "papers_"
)

// PaperCacheKey はカテゴリごとの論文キャッシュのキーを返す。
func PaperCacheKey(category string) string {
	return paperCacheKeyPrefix + category
}

// KeyValueStore はキー単位で値を読み書きするローカルストアのインターフェース。
// 書き込みは後勝ちで、楽観的排他制御は行わない。
type KeyValueStore interface {
	// Get は指定キーの値を返す。存在しない場合はfalseを返す。
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set は指定キーに値を上書き保存する。
	Set(ctx context.Context, key string, value []byte) error

	// Delete は指定キーを削除する。存在しない場合は何もしない。
	Delete(ctx context.Context, key string) error
}

// SubscriptionRepository は購読一覧の永続化インターフェース。
type SubscriptionRepository interface {
	// List は保存済みの購読一覧を返す。未保存の場合は空スライスを返す。
	List(ctx context.Context) ([]model.Subscription, error)

	// Update は購読一覧を読み込み、fnの戻り値で置き換える。
	// 読み込みから保存までを排他的に実行する。fnがエラーを返した場合は保存しない。
	Update(ctx context.Context, fn func([]model.Subscription) ([]model.Subscription, error)) error

	// Clear は購読一覧を削除する。
	Clear(ctx context.Context) error
}

// HistoryRepository は宛先ごとの配信済みリンク履歴の永続化インターフェース。
type HistoryRepository interface {
	// Links は宛先の配信済みリンク集合を返す。履歴がない場合は空のマップを返す。
	Links(ctx context.Context, email string) (map[string]struct{}, error)

	// Add は宛先の履歴にリンクを追加する。既存のリンクは重複させない。
	Add(ctx context.Context, email string, links []string) error

	// Clear は全宛先の履歴を削除する。
	Clear(ctx context.Context) error
}

// SettingsRepository は認証情報とメール送信設定の永続化インターフェース。
type SettingsRepository interface {
	// Load は保存済みの認証情報を返す。未保存の項目はゼロ値となる。
	Load(ctx context.Context) (model.Credentials, error)

	// SaveOpenAIKey は補助マッチング用のAPIキーを上書き保存する。
	SaveOpenAIKey(ctx context.Context, key string) error

	// SaveMailSettings はメールリレーの設定を上書き保存する。
	SaveMailSettings(ctx context.Context, settings model.MailSettings) error

	// Clear は認証情報とメール送信設定を削除する。
	Clear(ctx context.Context) error
}

// PaperCacheRepository はカテゴリごとの論文フェッチ結果キャッシュのインターフェース。
type PaperCacheRepository interface {
	// Get はカテゴリのキャッシュを返す。存在しない場合はnilを返す。
	Get(ctx context.Context, category string) (*model.CachedPapers, error)

	// Put はカテゴリのキャッシュを上書き保存する。
	Put(ctx context.Context, category string, papers []model.Paper, fetchedAt time.Time) error
}
