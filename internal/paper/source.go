// Package paper はarXivからの論文取得と正規化を提供する。
// リレーのローテーション、取得結果のキャッシュ、取得不能時のプレースホルダ返却を扱う。
package paper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/repository"
)

// Options は論文取得の設定値。
type Options struct {
	BaseURL         string
	MaxResults      int
	Relays          []string
	MaxAttempts     int
	Timeout         time.Duration
	MaxBodySize     int64
	CacheTTL        time.Duration
	RequestInterval time.Duration
}

// Fetcher は論文取得のインターフェース。
type Fetcher interface {
	// Fetch はカテゴリの最新論文を返す。エラーは返さず、取得できない場合は
	// キャッシュかプレースホルダ論文1件を返す。
	Fetch(ctx context.Context, category string) []model.Paper
}

// CategoryCount はカテゴリごとの一括取得結果。
type CategoryCount struct {
	Category    string `json:"category"`
	Count       int    `json:"count"`
	Unavailable bool   `json:"unavailable"`
}

// Source はarXiv APIから論文を取得するFetcher実装。
type Source struct {
	client  *http.Client
	cache   repository.PaperCacheRepository
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	limiter *rate.Limiter
	opts    Options
	now     func() time.Time
}

// NewSource はSourceの新しいインスタンスを生成する。
// RequestIntervalが0以下の場合はリクエスト間隔を制限しない。
func NewSource(
	client *http.Client,
	cache repository.PaperCacheRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	opts Options,
) *Source {
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 5 << 20
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Source{
		client:  client,
		cache:   cache,
		metrics: collector,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		now:     time.Now,
	}
}

// Fetch はリレーを順に試行してカテゴリの論文を取得する。
// 成功時はキャッシュに保存する。全試行が失敗した場合は有効期限内のキャッシュ、
// それもなければプレースホルダ論文1件を返す。
func (s *Source) Fetch(ctx context.Context, category string) []model.Paper {
	start := s.now()
	defer func() { s.metrics.RecordFetchLatency(s.now().Sub(start)) }()

	feedURL := BuildFeedURL(s.opts.BaseURL, category, s.opts.MaxResults)
	rot := NewRotator(s.opts.Relays, s.opts.MaxAttempts)

	for relay, ok := rot.Next(); ok; relay, ok = rot.Next() {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("論文取得の待機が中断されました",
				slog.String("category", category),
				slog.String("error", err.Error()),
			)
			break
		}

		rot.Attempt()
		papers, outcome, err := s.attempt(ctx, RelayURL(relay, feedURL))
		s.metrics.RecordRelayAttempt(outcome)
		if err == nil {
			s.logger.Info("論文を取得しました",
				slog.String("category", category),
				slog.String("relay", relayLabel(relay)),
				slog.Int("attempt", rot.Attempts()),
				slog.Int("papers", len(papers)),
			)
			if err := s.cache.Put(ctx, category, papers, s.now()); err != nil {
				s.logger.Error("論文キャッシュの保存に失敗しました",
					slog.String("category", category),
					slog.String("error", err.Error()),
				)
			}
			return papers
		}

		s.logger.Warn("リレー経由の論文取得に失敗しました",
			slog.String("category", category),
			slog.String("relay", relayLabel(relay)),
			slog.Int("attempt", rot.Attempts()),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		if ctx.Err() != nil {
			break
		}
	}

	return s.fallback(ctx, category)
}

// attempt は1回分のHTTP GETとパースを行い、結果の分類を返す。
func (s *Source) attempt(ctx context.Context, requestURL string) ([]model.Paper, string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, metrics.RelayOutcomeTransport, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "arxivnotify/1.0")
	req.Header.Set("Accept", "application/atom+xml, application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, metrics.RelayOutcomeTransport, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, metrics.RelayOutcomeStatus, fmt.Errorf("予期しないHTTPステータス: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodySize))
	if err != nil {
		return nil, metrics.RelayOutcomeTransport, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	papers, err := ParseFeed(body)
	if errors.Is(err, ErrEmptyBody) {
		return nil, metrics.RelayOutcomeEmpty, err
	}
	if err != nil {
		return nil, metrics.RelayOutcomeParse, err
	}
	return papers, metrics.RelayOutcomeOK, nil
}

// fallback は有効期限内のキャッシュ、なければプレースホルダ論文を返す。
func (s *Source) fallback(ctx context.Context, category string) []model.Paper {
	cached, err := s.cache.Get(ctx, category)
	if err != nil {
		s.logger.Error("論文キャッシュの読み込みに失敗しました",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
	}
	if cached != nil {
		age := s.now().Sub(time.UnixMilli(cached.Timestamp))
		if s.opts.CacheTTL <= 0 || age < s.opts.CacheTTL {
			s.metrics.RecordCacheFallback(category)
			s.logger.Info("キャッシュ済みの論文を返します",
				slog.String("category", category),
				slog.Int64("age_ms", age.Milliseconds()),
			)
			return cached.Data
		}
	}

	s.metrics.RecordUnavailable(category)
	s.logger.Warn("論文を取得できないためプレースホルダを返します", slog.String("category", category))
	return []model.Paper{Unavailable(category, s.now())}
}

// UpdateAll は全カテゴリの論文を順に取得し、カテゴリごとの件数を返す。
// プレースホルダのみのカテゴリは件数0として扱う。
func (s *Source) UpdateAll(ctx context.Context) []CategoryCount {
	counts := make([]CategoryCount, 0, len(categories))
	for _, c := range categories {
		papers := s.Fetch(ctx, c.ID)
		cc := CategoryCount{Category: c.ID}
		if len(papers) == 1 && papers[0].Unavailable {
			cc.Unavailable = true
		} else {
			cc.Count = len(papers)
		}
		counts = append(counts, cc)
	}
	return counts
}

// Unavailable は取得不能を表すプレースホルダ論文を生成する。
func Unavailable(category string, now time.Time) model.Paper {
	return model.Paper{
		Title:       "論文を取得できませんでした",
		Authors:     []string{"arxivnotify"},
		Published:   now,
		Summary:     "arXivおよびキャッシュから論文を取得できませんでした。ネットワーク接続またはリレー設定を確認してください。",
		Link:        model.UnavailableLink,
		Categories:  []string{category},
		Unavailable: true,
	}
}

func relayLabel(prefix string) string {
	if prefix == "" {
		return "direct"
	}
	return prefix
}

var _ Fetcher = (*Source)(nil)
