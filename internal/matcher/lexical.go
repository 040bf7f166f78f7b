package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// Lexical は大文字小文字を区別しない部分文字列一致で判定するMatcher。
type Lexical struct{}

// Match はタイトルと要約を連結した文字列に対してキーワードを照合する。
func (Lexical) Match(_ context.Context, paper model.Paper, keywords []string) Result {
	return MatchText(paper.Text(), keywords)
}

// Assisted は常にfalseを返す。
func (Lexical) Assisted() bool { return false }

// MatchText はtextに部分文字列として含まれるキーワードを入力順で返す。
// 1件以上一致すれば関連ありとし、スコアは一致時0.7、不一致時0とする。
// 空文字列のキーワードは任意のtextに含まれるものとして扱う。
func MatchText(text string, keywords []string) Result {
	lower := strings.ToLower(text)

	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	if len(matched) == 0 {
		return Result{
			IsRelevant:      false,
			MatchedKeywords: matched,
			Score:           0,
			Explanation:     "一致するキーワードはありません",
		}
	}
	return Result{
		IsRelevant:      true,
		MatchedKeywords: matched,
		Score:           RelevanceThreshold,
		Explanation:     fmt.Sprintf("%d件のキーワードが一致しました", len(matched)),
	}
}

var _ Matcher = Lexical{}
