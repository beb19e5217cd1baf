// Package view はボードとプロフィールのページを x/net/html のノードツリーとして組み立て、描画する。
// ツリーはリクエストごとに新しく構築され、セクション単位で前回の描画と比較できる。
package view

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// sectionAttr は差分比較の対象となるセクションを示す属性。
const sectionAttr = "data-section"

// El は要素ノードを生成する。nilの子は無視する。
func El(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text はテキストノードを生成する。描画時にエスケープされる。
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attrs はキーと値を交互に並べた引数から属性を生成する。
func Attrs(kv ...string) []html.Attribute {
	attrs := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return attrs
}

// Section は差分比較の対象となるセクション要素を生成する。
func Section(id string, children ...*html.Node) *html.Node {
	return El("section", Attrs("id", id, sectionAttr, id), children...)
}

// Fragment はサニタイズ済みHTMLをパースし、div要素の子として返す。
// パースに失敗した場合はテキストとして扱う。
func Fragment(class, sanitizedHTML string) *html.Node {
	wrapper := El("div", Attrs("class", class))
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(sanitizedHTML), parent)
	if err != nil {
		wrapper.AppendChild(Text(sanitizedHTML))
		return wrapper
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return wrapper
}

// Render はノードツリーを書き出す。
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderString はノードツリーを文字列にする。テスト用。
func RenderString(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// safeURL はhttp(s)以外のURLを空文字列にする。
func safeURL(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return strings.TrimSpace(raw)
	}
	return ""
}
