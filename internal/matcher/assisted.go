package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
)

// Classification は分類APIが返す構造化レスポンス。
type Classification struct {
	Relevant        bool     `json:"relevant"`
	Score           *float64 `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
	Explanation     string   `json:"explanation"`
}

// Classifier は論文テキストとキーワードから関連性を分類する外部呼び出し。
type Classifier interface {
	Classify(ctx context.Context, paperText string, keywords []string) (*Classification, error)
}

// フォールバック理由のラベル
const (
	fallbackNoCredential = "no_credential"
	fallbackCallFailed   = "call_failed"
	fallbackInvalid      = "invalid_response"
)

// errInvalidClassification はレスポンスの形式が不正な場合のエラー。
var errInvalidClassification = errors.New("invalid classification response")

// Assisted は分類APIで判定し、失敗時は文字列マッチングに切り替えるMatcher。
// 分類APIのエラーは呼び出し元に返さない。
type Assisted struct {
	classifier Classifier
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewAssisted はAssistedの新しいインスタンスを生成する。
// classifierがnilの場合は常に文字列マッチングで判定する。
func NewAssisted(classifier Classifier, collector metrics.MetricsCollector, logger *slog.Logger) *Assisted {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Assisted{classifier: classifier, metrics: collector, logger: logger}
}

// Assisted は常にtrueを返す。
func (a *Assisted) Assisted() bool { return true }

// Match は分類APIの結果から関連性を判定する。
// relevantがfalseでもスコアが0.7以上なら関連ありとする。
func (a *Assisted) Match(ctx context.Context, paper model.Paper, keywords []string) Result {
	if a.classifier == nil {
		return a.fallback(paper, keywords, fallbackNoCredential, nil)
	}

	c, err := a.classifier.Classify(ctx, paper.Text(), keywords)
	if err != nil {
		reason := fallbackCallFailed
		if errors.Is(err, errInvalidClassification) {
			reason = fallbackInvalid
		}
		return a.fallback(paper, keywords, reason, err)
	}
	if err := validateClassification(c); err != nil {
		return a.fallback(paper, keywords, fallbackInvalid, err)
	}

	matched := make([]string, 0, len(c.MatchedKeywords))
	for _, kw := range c.MatchedKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			matched = append(matched, kw)
		}
	}

	return Result{
		IsRelevant:      c.Relevant || *c.Score >= RelevanceThreshold,
		MatchedKeywords: matched,
		Score:           *c.Score,
		Explanation:     c.Explanation,
	}
}

func (a *Assisted) fallback(paper model.Paper, keywords []string, reason string, err error) Result {
	a.metrics.RecordAssistedFallback(reason)
	attrs := []any{
		slog.String("reason", reason),
		slog.String("link", paper.Link),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	a.logger.Debug("補助マッチングを使用できないため文字列マッチングで判定します", attrs...)
	return MatchText(paper.Text(), keywords)
}

// validateClassification はスコアの欠落と範囲外の値を拒否する。
func validateClassification(c *Classification) error {
	if c == nil {
		return fmt.Errorf("%w: empty", errInvalidClassification)
	}
	if c.Score == nil {
		return fmt.Errorf("%w: score is missing", errInvalidClassification)
	}
	if *c.Score < 0 || *c.Score > 1 {
		return fmt.Errorf("%w: score %v out of range", errInvalidClassification, *c.Score)
	}
	return nil
}

// parseClassification は言語モデルの出力テキストをClassificationにデコードする。
// コードブロックで囲まれた出力も受け付ける。
func parseClassification(text string) (*Classification, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var c Classification
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidClassification, err)
	}
	return &c, nil
}

var _ Matcher = (*Assisted)(nil)
