package matcher

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
)

// プロバイダ名
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// SelectorOptions は補助マッチングのプロバイダ設定。
type SelectorOptions struct {
	Provider      string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiModel   string
}

// Selector は実行ごとの認証情報からMatcherを選択する。
type Selector struct {
	httpClient *http.Client
	opts       SelectorOptions
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewSelector はSelectorの新しいインスタンスを生成する。
func NewSelector(httpClient *http.Client, opts SelectorOptions, collector metrics.MetricsCollector, logger *slog.Logger) *Selector {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Selector{httpClient: httpClient, opts: opts, metrics: collector, logger: logger}
}

// Select は1回の実行で使用するMatcherを返す。
// useAssistedがfalse、またはAPIキーが未設定の場合は文字列マッチングを返す。
func (s *Selector) Select(ctx context.Context, creds model.Credentials, useAssisted bool) Matcher {
	if !useAssisted || creds.OpenAIKey == "" {
		return Lexical{}
	}

	switch s.opts.Provider {
	case ProviderGemini:
		classifier, err := NewGeminiClassifier(ctx, s.httpClient, creds.OpenAIKey, s.opts.GeminiModel)
		if err != nil {
			s.logger.Warn("Geminiクライアントを生成できないため文字列マッチングに切り替えます",
				slog.String("error", err.Error()),
			)
			return NewAssisted(nil, s.metrics, s.logger)
		}
		return NewAssisted(classifier, s.metrics, s.logger)
	default:
		classifier := NewOpenAIClassifier(s.httpClient, s.opts.OpenAIBaseURL, creds.OpenAIKey, s.opts.OpenAIModel)
		return NewAssisted(classifier, s.metrics, s.logger)
	}
}
