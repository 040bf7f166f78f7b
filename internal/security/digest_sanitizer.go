package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer はメール本文に埋め込むHTMLをサニタイズする。
type HTMLSanitizer interface {
	// Sanitize は許可リストに含まれないタグと属性を除去したHTMLを返す。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// digestSanitizer はダイジェストメール用のbluemondayポリシーを保持する。
type digestSanitizer struct {
	policy *bluemonday.Policy
}

// NewDigestSanitizer はダイジェストメール本文向けのサニタイザーを生成する。
// 許可タグ: div, p, br, h3, span, strong, em, small, ul, li, a
// aタグのhrefはhttp/httpsの絶対URLのみ許可し、target="_blank"とrel="noopener noreferrer"を付与する。
// class属性は許可するが、style属性とon*イベント属性は除去する。
func NewDigestSanitizer() *digestSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"div", "p", "br", "h3", "span",
		"strong", "em", "small", "ul", "li",
	)
	p.AllowAttrs("class").OnElements("div", "p", "span", "small")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &digestSanitizer{policy: p}
}

func (s *digestSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

var _ HTMLSanitizer = (*digestSanitizer)(nil)
