// Package notify はマッチした論文のダイジェストメール送信を提供する。
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/paper"
	"github.com/hitoshi/arxivnotify/internal/security"
	"github.com/hitoshi/arxivnotify/internal/subscription"
)

// 送信結果のラベル
const (
	outcomeSent             = "sent"
	outcomeInvalidRecipient = "invalid_recipient"
	outcomeNotConfigured    = "not_configured"
)

// Options はダイジェストの整形設定。
type Options struct {
	MaxPapers     int
	SummaryMaxLen int
}

// SendResult はダイジェスト送信の結果。
type SendResult struct {
	Sent    int
	Omitted int
}

// Dispatcher はダイジェストを整形してメールリレーに送信する。
type Dispatcher struct {
	sender        Sender
	sanitizer     security.HTMLSanitizer
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	maxPapers     int
	summaryMaxLen int
	now           func() time.Time
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
func NewDispatcher(sender Sender, sanitizer security.HTMLSanitizer, collector metrics.MetricsCollector, logger *slog.Logger, opts Options) *Dispatcher {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if opts.MaxPapers <= 0 {
		opts.MaxPapers = DefaultMaxPapers
	}
	if opts.SummaryMaxLen <= 0 {
		opts.SummaryMaxLen = DefaultSummaryMaxLen
	}
	return &Dispatcher{
		sender:        sender,
		sanitizer:     sanitizer,
		metrics:       collector,
		logger:        logger,
		maxPapers:     opts.MaxPapers,
		summaryMaxLen: opts.SummaryMaxLen,
		now:           time.Now,
	}
}

// Send はpapersのダイジェストをrecipientに送信する。
// 宛先形式、送信設定の順に検証し、不備があればネットワーク通信を行わずにエラーを返す。
func (d *Dispatcher) Send(ctx context.Context, settings model.MailSettings, recipient string, papers []model.MatchedPaper) (*SendResult, error) {
	if !subscription.ValidEmail(recipient) {
		d.metrics.RecordDispatch(outcomeInvalidRecipient)
		return nil, model.NewInvalidEmailError(recipient)
	}
	if missing := settings.Missing(); len(missing) > 0 {
		d.metrics.RecordDispatch(outcomeNotConfigured)
		return nil, model.NewConfigurationError(missing)
	}

	digest, err := d.renderDigest(papers)
	if err != nil {
		return nil, err
	}

	params := recipientParams(recipient)
	params["subject"] = fmt.Sprintf("arXiv新着論文のおすすめ（%d件）", len(papers))
	params["papers"] = digest.HTML
	params["papers_html"] = digest.HTML
	params["papers_count"] = len(papers)
	params["more_count"] = digest.Omitted
	params["current_year"] = d.now().Year()

	if err := d.sender.Send(ctx, settings, params); err != nil {
		kind, dispatchErr := classifyDispatchError(err)
		d.metrics.RecordDispatch(string(kind))
		d.logger.Warn("ダイジェストメールの送信に失敗",
			slog.String("email", recipient),
			slog.String("code", dispatchErr.Code),
			slog.String("error", err.Error()),
		)
		return nil, dispatchErr
	}

	d.metrics.RecordDispatch(outcomeSent)
	d.logger.Info("ダイジェストメールを送信しました",
		slog.String("email", recipient),
		slog.Int("papers", digest.Included),
		slog.Int("omitted", digest.Omitted),
	)
	return &SendResult{Sent: digest.Included, Omitted: digest.Omitted}, nil
}

// SendWelcome は購読登録の確認メールを送信する。
// 失敗はログに記録するのみで、送信できたかどうかを返す。
func (d *Dispatcher) SendWelcome(ctx context.Context, settings model.MailSettings, sub model.Subscription) bool {
	if !settings.Complete() || !subscription.ValidEmail(sub.Email) {
		d.logger.Debug("送信設定が不足しているため確認メールを送信しません", slog.String("email", sub.Email))
		return false
	}

	names := make([]string, len(sub.Categories))
	for i, c := range sub.Categories {
		names[i] = paper.CategoryName(c)
	}

	params := recipientParams(sub.Email)
	params["subject"] = "arXiv論文通知の購読を登録しました"
	params["keywords"] = strings.Join(sub.Keywords, ", ")
	params["categories"] = strings.Join(names, ", ")
	params["current_year"] = d.now().Year()

	if err := d.sender.Send(ctx, settings, params); err != nil {
		d.logger.Warn("確認メールの送信に失敗",
			slog.String("email", sub.Email),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// recipientParams はテンプレートごとに異なる宛先変数名をすべて設定したパラメータを返す。
func recipientParams(recipient string) map[string]any {
	return map[string]any{
		"to_email":  recipient,
		"email":     recipient,
		"to":        recipient,
		"recipient": recipient,
	}
}

// classifyDispatchError はリレーのエラーテキストから失敗の種類を判定する。
func classifyDispatchError(err error) (model.DispatchKind, *model.APIError) {
	text := err.Error()
	var relayErr *RelayError
	if errors.As(err, &relayErr) && relayErr.Text != "" {
		text = relayErr.Text
	}

	lower := strings.ToLower(text)
	kind := model.DispatchKindUnknown
	switch {
	case strings.Contains(lower, "recipients address is empty"), strings.Contains(lower, "recipient"):
		kind = model.DispatchKindRecipient
	case strings.Contains(lower, "template"):
		kind = model.DispatchKindTemplate
	case strings.Contains(lower, "service"):
		kind = model.DispatchKindService
	}
	return kind, model.NewDispatchError(kind, text)
}
