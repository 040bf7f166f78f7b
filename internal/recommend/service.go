// Package recommend は購読ごとの論文推薦と配信を提供する。
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/arxivnotify/internal/matcher"
	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/notify"
	"github.com/hitoshi/arxivnotify/internal/paper"
	"github.com/hitoshi/arxivnotify/internal/repository"
	"github.com/hitoshi/arxivnotify/internal/subscription"
)

// MatcherSelector は実行ごとのMatcherを選択する。
type MatcherSelector interface {
	Select(ctx context.Context, creds model.Credentials, useAssisted bool) matcher.Matcher
}

// DigestSender はマッチした論文のダイジェストを送信する。
type DigestSender interface {
	Send(ctx context.Context, settings model.MailSettings, recipient string, papers []model.MatchedPaper) (*notify.SendResult, error)
}

// CredentialLoader は保存済みの認証情報を読み込む。
type CredentialLoader interface {
	Credentials(ctx context.Context) (model.Credentials, error)
}

// Options は推薦実行のオプション。
type Options struct {
	// UseAssisted は補助マッチングを使用するかどうか。
	UseAssisted bool
}

// DefaultOptions は購読の更新で使用する既定オプションを返す。
func DefaultOptions() Options {
	return Options{UseAssisted: true}
}

// RefreshResult は1件の購読の更新結果。
type RefreshResult struct {
	Papers map[string][]model.MatchedPaper `json:"papers"`
	Total  int                             `json:"total"`
	Sent   bool                            `json:"sent"`
	Status model.Status                    `json:"status"`
}

// Summary は全購読の一括更新結果。
type Summary struct {
	SuccessCount int          `json:"success_count"`
	TotalPapers  int          `json:"total_papers"`
	Failed       int          `json:"failed"`
	Status       model.Status `json:"status"`
}

// Service は論文取得、マッチング、履歴フィルタ、配信をまとめるサービス層。
// 購読は1件ずつ順番に処理する。
type Service struct {
	fetcher     paper.Fetcher
	selector    MatcherSelector
	dispatcher  DigestSender
	credentials CredentialLoader
	subRepo     repository.SubscriptionRepository
	historyRepo repository.HistoryRepository
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	fetcher paper.Fetcher,
	selector MatcherSelector,
	dispatcher DigestSender,
	credentials CredentialLoader,
	subRepo repository.SubscriptionRepository,
	historyRepo repository.HistoryRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		fetcher:     fetcher,
		selector:    selector,
		dispatcher:  dispatcher,
		credentials: credentials,
		subRepo:     subRepo,
		historyRepo: historyRepo,
		metrics:     collector,
		logger:      logger,
	}
}

// Refresh は1件の購読について新しい論文を検索し、見つかればダイジェストを送信する。
// メール送信設定が揃っていない場合はConfigurationErrorを返す。
func (s *Service) Refresh(ctx context.Context, sub model.Subscription, opts Options) (*RefreshResult, error) {
	creds, err := s.readyCredentials(ctx)
	if err != nil {
		return nil, err
	}
	m := s.selector.Select(ctx, creds, opts.UseAssisted)
	return s.refresh(ctx, sub, creds, m)
}

// RefreshAll は全購読を順番に更新する。
// 購読ごとの失敗はログに記録して件数に数え、残りの購読の処理は継続する。
func (s *Service) RefreshAll(ctx context.Context, opts Options) (*Summary, error) {
	creds, err := s.readyCredentials(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}
	if len(subs) == 0 {
		return &Summary{Status: model.NewStatus(model.StatusInfo, "更新できる購読がありません。")}, nil
	}

	m := s.selector.Select(ctx, creds, opts.UseAssisted)

	summary := &Summary{}
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.refresh(ctx, sub, creds, m)
		if err != nil {
			summary.Failed++
			s.logger.Error("購読の更新に失敗",
				slog.String("subscription_id", sub.ID),
				slog.String("email", sub.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		if result.Sent {
			summary.SuccessCount++
			summary.TotalPapers += result.Total
		}
	}

	if summary.SuccessCount > 0 {
		summary.Status = model.NewStatus(model.StatusSuccess,
			fmt.Sprintf("%d件の購読を更新し、合計%d件の論文を送信しました。", summary.SuccessCount, summary.TotalPapers))
	} else if summary.Failed > 0 {
		summary.Status = model.NewStatus(model.StatusWarning,
			fmt.Sprintf("%d件の購読の更新に失敗しました。", summary.Failed))
	} else {
		summary.Status = model.NewStatus(model.StatusInfo, "どの購読にも一致する新しい論文はありませんでした。")
	}
	return summary, nil
}

// TestMatch はカテゴリの最新論文に対してキーワードのマッチングを試す。
// 履歴による除外とメール送信は行わない。
func (s *Service) TestMatch(ctx context.Context, keywords []string, useAssisted bool, category string) ([]model.MatchedPaper, error) {
	keywords = subscription.NormalizeKeywords(keywords)
	if len(keywords) == 0 {
		return nil, model.NewEmptyKeywordsError()
	}
	if category == "" {
		return nil, model.NewEmptyCategoriesError()
	}

	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	m := s.selector.Select(ctx, creds, useAssisted)

	papers := s.fetcher.Fetch(ctx, category)
	return collectMatches(ctx, m, papers, keywords, nil), nil
}

func (s *Service) readyCredentials(ctx context.Context) (model.Credentials, error) {
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return model.Credentials{}, err
	}
	if missing := creds.Mail.Missing(); len(missing) > 0 {
		return model.Credentials{}, model.NewConfigurationError(missing)
	}
	return creds, nil
}

func (s *Service) refresh(ctx context.Context, sub model.Subscription, creds model.Credentials, m matcher.Matcher) (*RefreshResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordRefreshLatency(time.Since(start))
	}()

	delivered, err := s.historyRepo.Links(ctx, sub.Email)
	if err != nil {
		return nil, fmt.Errorf("配信履歴の取得に失敗しました: %w", err)
	}

	// 既に配信済み、または先に処理したカテゴリで収集済みのリンクを除外する
	exclude := make(map[string]struct{}, len(delivered))
	for link := range delivered {
		exclude[link] = struct{}{}
	}

	result := &RefreshResult{Papers: make(map[string][]model.MatchedPaper)}
	var all []model.MatchedPaper
	for _, category := range sub.Categories {
		papers := s.fetcher.Fetch(ctx, category)
		matched := collectMatches(ctx, m, papers, sub.Keywords, exclude)
		if len(matched) > 0 {
			result.Papers[category] = matched
			all = append(all, matched...)
		}
		s.logger.Debug("カテゴリのマッチングが完了",
			slog.String("email", sub.Email),
			slog.String("category", category),
			slog.Int("fetched", len(papers)),
			slog.Int("matched", len(matched)),
		)
	}
	result.Total = len(all)

	if result.Total == 0 {
		result.Status = model.NewStatus(model.StatusInfo,
			fmt.Sprintf("%s の購読に一致する新しい論文はありません。", sub.Email))
		return result, nil
	}

	_, sendErr := s.dispatcher.Send(ctx, creds.Mail, sub.Email, all)
	if sendErr != nil && !model.IsDispatchError(sendErr) {
		// リレーへの送信前に中断したため履歴は更新しない
		return nil, sendErr
	}

	links := make([]string, len(all))
	for i, p := range all {
		links[i] = p.Link
	}
	if err := s.historyRepo.Add(ctx, sub.Email, links); err != nil {
		// 送信済みの結果は失わず、次回の更新で同じ論文が再送されうることだけを記録する
		s.logger.Warn("配信履歴の保存に失敗しました",
			slog.String("email", sub.Email),
			slog.Int("links", len(links)),
			slog.String("error", err.Error()),
		)
	}

	if sendErr != nil {
		return nil, sendErr
	}

	result.Sent = true
	result.Status = model.NewStatus(model.StatusSuccess,
		fmt.Sprintf("%d件の論文が見つかり、%s に送信しました。", result.Total, sub.Email))
	s.logger.Info("購読を更新しました",
		slog.String("email", sub.Email),
		slog.Int("papers", result.Total),
	)
	return result, nil
}

// collectMatches はpapersのうちキーワードに関連する論文を順に返す。
// プレースホルダ論文とexcludeに含まれるリンクは判定の対象外とし、
// 一致した論文のリンクはexcludeに追加する。
// 補助マッチング使用時は MaxAssistedMatches 件で打ち切る。
func collectMatches(ctx context.Context, m matcher.Matcher, papers []model.Paper, keywords []string, exclude map[string]struct{}) []model.MatchedPaper {
	matched := make([]model.MatchedPaper, 0)
	for _, p := range papers {
		if p.Unavailable {
			continue
		}
		if _, ok := exclude[p.Link]; ok {
			continue
		}

		r := m.Match(ctx, p, keywords)
		if !r.IsRelevant {
			continue
		}
		matched = append(matched, model.MatchedPaper{Paper: p, MatchedKeywords: r.MatchedKeywords})
		if exclude != nil {
			exclude[p.Link] = struct{}{}
		}

		if m.Assisted() && len(matched) >= matcher.MaxAssistedMatches {
			break
		}
	}
	return matched
}
