// Package matcher は論文とキーワードの関連性判定を提供する。
// 文字列マッチングと、外部の言語モデルによる補助マッチングの2つの戦略を持つ。
package matcher

import (
	"context"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// RelevanceThreshold はスコアのみで関連ありと判定する閾値。
const RelevanceThreshold = 0.7

// MaxAssistedMatches は補助マッチング時に1カテゴリで収集する最大件数。
// 分類APIの呼び出し回数を抑えるため、この件数に達した時点で走査を打ち切る。
const MaxAssistedMatches = 10

// Result は1件の論文に対する関連性判定の結果。
type Result struct {
	IsRelevant      bool     `json:"is_relevant"`
	MatchedKeywords []string `json:"matched_keywords"`
	Score           float64  `json:"score"`
	Explanation     string   `json:"explanation"`
}

// Matcher は関連性判定の戦略。
type Matcher interface {
	// Match は論文がキーワードに関連するかを判定する。失敗しても結果を返す。
	Match(ctx context.Context, paper model.Paper, keywords []string) Result

	// Assisted は外部分類を利用する戦略かどうかを返す。
	Assisted() bool
}
