package security

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ContentSanitizerService はアクティビティフィード本文のHTMLをサニタイズする。
type ContentSanitizerService interface {
	// Sanitize は許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img）のみを残す。
	// imgのsrcはhttpsのみ許可し、aタグには target="_blank" と rel="noopener noreferrer" を付与する。
	Sanitize(rawHTML string) string
}

// TextSanitizerService はバックエンドやフィードから受け取った文字列をプレーンテキストにする。
type TextSanitizerService interface {
	// SanitizeText はすべてのタグを除去し、連続する空白を1つにまとめる。
	// 戻り値はエスケープされていないテキストで、描画時にエスケープされる前提。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// textSanitizer はTextSanitizerServiceの実装。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを使うTextSanitizerServiceを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText はTextSanitizerServiceを実装する。
// StrictPolicyは出力をエスケープするため、描画側での二重エスケープを避けて元に戻す。
func (s *textSanitizer) SanitizeText(raw string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(stripped), " ")
}
