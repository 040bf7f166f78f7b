package paper

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchQuery はカテゴリからarXivのsearch_queryを組み立てる。
// "cs" のようなトップレベルは "cat:cs.*"、"cs.AI" のようなサブカテゴリは "cat:cs.AI" となる。
func SearchQuery(category string) string {
	if strings.Contains(category, ".") {
		return "cat:" + category
	}
	return "cat:" + category + ".*"
}

// BuildFeedURL は投稿日の降順でmaxResults件を取得するフィードURLを返す。
func BuildFeedURL(baseURL, category string, maxResults int) string {
	q := url.Values{}
	q.Set("search_query", SearchQuery(category))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	q.Set("max_results", strconv.Itoa(maxResults))
	return baseURL + "?" + q.Encode()
}

// RelayURL はリレーのプレフィックスとフィードURLから実際のリクエストURLを組み立てる。
// プレフィックスが "=" で終わる場合はクエリパラメータとして扱い、フィードURLをエスケープする。
// それ以外はそのまま連結する。空のプレフィックスは直接接続を表す。
func RelayURL(prefix, feedURL string) string {
	switch {
	case prefix == "":
		return feedURL
	case strings.HasSuffix(prefix, "="):
		return prefix + url.QueryEscape(feedURL)
	default:
		return prefix + feedURL
	}
}
