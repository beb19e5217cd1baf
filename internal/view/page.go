package view

import (
	"context"
	"embed"
	"io"
	"io/fs"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
)

//go:embed static
var staticFiles embed.FS

// StaticFS はページが参照するCSSとスクリプトを返す。/static/ 以下で配信する。
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page はbody要素をHTML文書として包むコンポーネントを返す。
// スタイルとスクリプトは外部ファイルとして読み込み、インラインには書かない。
func Page(title, lang string, body *html.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html>
<html lang="`+html.EscapeString(lang)+`">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+html.EscapeString(title)+`</title>
    <link rel="stylesheet" href="/static/board.css"/>
    <script src="/static/board.js" defer></script>
  </head>
`); err != nil {
			return err
		}
		if err := Render(w, body); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</html>\n")
		return err
	})
}
