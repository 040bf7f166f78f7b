package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// 既定のダイジェスト上限
const (
	DefaultMaxPapers     = 10
	DefaultSummaryMaxLen = 300
)

const dateLayout = "2006-01-02"

var digestTemplate = template.Must(template.New("digest").Parse(`{{range .}}<div class="paper">
<h3>{{.Number}}. <a href="{{.Link}}">{{.Title}}</a></h3>
<p><strong>著者:</strong> {{.Authors}}</p>
<p><strong>公開日:</strong> {{.Date}}</p>
<p><strong>一致キーワード:</strong> {{.Keywords}}</p>
<p class="summary">{{.Summary}}</p>
</div>
{{end}}`))

// digestBlock は1件分のダイジェスト表示データ。
type digestBlock struct {
	Number   int
	Title    string
	Link     string
	Authors  string
	Date     string
	Keywords string
	Summary  string
}

// Digest はレンダリング済みのダイジェスト本文。
type Digest struct {
	HTML     string
	Included int
	Omitted  int
}

// renderDigest は先頭maxPapers件の論文をHTMLブロックに整形し、サニタイズして返す。
func (d *Dispatcher) renderDigest(papers []model.MatchedPaper) (*Digest, error) {
	included := papers
	if len(included) > d.maxPapers {
		included = included[:d.maxPapers]
	}

	blocks := make([]digestBlock, len(included))
	for i, p := range included {
		date := "不明"
		if !p.Published.IsZero() {
			date = p.Published.UTC().Format(dateLayout)
		}
		blocks[i] = digestBlock{
			Number:   i + 1,
			Title:    p.Title,
			Link:     p.Link,
			Authors:  strings.Join(p.Authors, ", "),
			Date:     date,
			Keywords: strings.Join(p.MatchedKeywords, ", "),
			Summary:  Truncate(p.Summary, d.summaryMaxLen),
		}
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, blocks); err != nil {
		return nil, fmt.Errorf("ダイジェストのレンダリングに失敗: %w", err)
	}

	return &Digest{
		HTML:     d.sanitizer.Sanitize(buf.String()),
		Included: len(included),
		Omitted:  len(papers) - len(included),
	}, nil
}

// Truncate は文字列をmaxRunes文字で切り詰め、切り詰めた場合は "..." を付与する。
func Truncate(s string, maxRunes int) string {
	r := []rune(s)
	if maxRunes <= 0 || len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
