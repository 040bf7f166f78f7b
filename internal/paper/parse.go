package paper

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"golang.org/x/net/html"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// ErrEmptyBody はリレーが空のレスポンスを返した場合のエラー。
var ErrEmptyBody = errors.New("empty response body")

const unknownAuthor = "unknown"

// ParseFeed はAtomフィードを論文のスライスに変換する。
// ルート要素がAtomのfeedでない場合（リレーが返すJSONやRSS、HTMLなど）はエラーを返す。
// 個々のエントリの欠損はデフォルト値の補完か、そのエントリの除外で吸収する。
func ParseFeed(body []byte) ([]model.Paper, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyBody
	}

	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("Atomフィードのパースに失敗: %w", err)
	}
	feed, err := (&gofeed.DefaultAtomTranslator{}).Translate(parsed)
	if err != nil {
		return nil, fmt.Errorf("Atomフィードの変換に失敗: %w", err)
	}

	papers := make([]model.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if p, ok := convertItem(item); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// convertItem はフィードのエントリを論文に変換する。
// タイトルまたはリンクが得られない場合はfalseを返す。
func convertItem(item *gofeed.Item) (model.Paper, bool) {
	title := cleanText(item.Title)
	if title == "" {
		return model.Paper{}, false
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && isHTTPURL(item.GUID) {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return model.Paper{}, false
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) == 0 {
		authors = []string{unknownAuthor}
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	cats := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}

	return model.Paper{
		Title:      title,
		Authors:    authors,
		Published:  published,
		Summary:    cleanText(summary),
		Link:       link,
		Categories: cats,
	}, true
}

// cleanText はHTMLタグを除去し、連続する空白を1つにまとめる。
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func isHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
