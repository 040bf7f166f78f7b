package model

import "time"

// UnavailableLink は取得不能時のプレースホルダ論文に設定するリンク。
const UnavailableLink = "https://arxiv.org"

// Paper はarXivから取得して正規化した論文を表す。
// 取得後は不変として扱い、Linkを同一性の判定に使用する。
type Paper struct {
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	Published  time.Time `json:"published"`
	Summary    string    `json:"summary"`
	Link       string    `json:"link"`
	Categories []string  `json:"categories"`

	// Unavailable は上流・キャッシュともに取得できなかった場合のプレースホルダであることを示す。
	Unavailable bool `json:"unavailable,omitempty"`
}

// Text はマッチング対象となるタイトルと要約を連結した文字列を返す。
func (p Paper) Text() string {
	return p.Title + " " + p.Summary
}

// MatchedPaper はキーワードにマッチした論文とマッチしたキーワードを表す。
type MatchedPaper struct {
	Paper
	MatchedKeywords []string `json:"matched_keywords"`
}

// Category は購読可能な論文カテゴリを表す。
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CachedPapers はカテゴリごとのフェッチ結果キャッシュを表す。
// Timestampはミリ秒単位のUNIX時刻。
type CachedPapers struct {
	Timestamp int64   `json:"timestamp"`
	Data      []Paper `json:"data"`
}
