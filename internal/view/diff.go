package view

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"golang.org/x/net/html"
)

// Fingerprints はセクションIDごとの描画結果のハッシュ。
type Fingerprints map[string]string

// SectionFingerprints はツリー内の data-section 要素をそれぞれ描画し、ハッシュを求める。
func SectionFingerprints(root *html.Node) Fingerprints {
	fp := make(Fingerprints)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, sectionAttr); id != "" {
				var buf bytes.Buffer
				if err := html.Render(&buf, n); err == nil {
					sum := sha256.Sum256(buf.Bytes())
					fp[id] = hex.EncodeToString(sum[:])
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return fp
}

// Diff は前回と今回で内容が変わったセクションIDを昇順で返す。
// 片方にしかないセクションも変更として扱う。
func Diff(prev, next Fingerprints) []string {
	var changed []string
	for id, sum := range next {
		if prev[id] != sum {
			changed = append(changed, id)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed
}

// ETag は描画済みページの強いETagを返す。
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
