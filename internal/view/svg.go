package view

import (
	"math"
	"strconv"

	"golang.org/x/net/html"

	"github.com/hitoshi/gardenboard/internal/board"
)

// チャートの描画領域（viewBox単位）。
const (
	chartWidth   = 640.0
	chartHeight  = 240.0
	chartPadLeft = 40.0
	chartPadTop  = 16.0
	chartPadEnd  = 12.0
	chartPadBase = 28.0
	// maxXLabels を超える場合はX軸ラベルを間引く。
	maxXLabels = 12
)

// ChartFigure はチャートをインラインSVGのfigureとして描画する。タイトルは表示言語に翻訳する。
func ChartFigure(c board.Chart, l Locale) *html.Node {
	title := l.T(c.Title)
	return El("figure", Attrs("id", c.ID, sectionAttr, c.ID, "class", "chart chart-"+string(c.Kind)),
		El("figcaption", nil, Text(title)),
		chartSVG(c, title),
	)
}

func chartSVG(c board.Chart, title string) *html.Node {
	svg := El("svg", Attrs(
		"viewBox", "0 0 "+coord(chartWidth)+" "+coord(chartHeight),
		"role", "img",
		"aria-label", title,
		"class", "chart-svg",
	))

	plotW := chartWidth - chartPadLeft - chartPadEnd
	plotH := chartHeight - chartPadTop - chartPadBase
	baseY := chartPadTop + plotH

	maxValue := c.Max()
	if maxValue <= 0 {
		maxValue = 1
	}

	// 軸
	svg.AppendChild(line(chartPadLeft, chartPadTop, chartPadLeft, baseY, "axis"))
	svg.AppendChild(line(chartPadLeft, baseY, chartPadLeft+plotW, baseY, "axis"))
	svg.AppendChild(label(chartPadLeft-6, chartPadTop+4, "end", formatValue(maxValue)+c.Unit))
	svg.AppendChild(label(chartPadLeft-6, baseY, "end", "0"+c.Unit))

	n := len(c.Values)
	if n == 0 {
		return svg
	}

	slot := plotW / float64(n)
	step := int(math.Ceil(float64(n) / maxXLabels))
	if step < 1 {
		step = 1
	}

	scale := func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		if v > maxValue {
			v = maxValue
		}
		return v / maxValue * plotH
	}

	var points []byte
	for i, v := range c.Values {
		cx := chartPadLeft + slot*float64(i) + slot/2
		h := scale(v)
		tooltip := El("title", nil, Text(labelAt(c.Labels, i)+": "+formatValue(v)+c.Unit))

		switch c.Kind {
		case board.ChartLine:
			if len(points) > 0 {
				points = append(points, ' ')
			}
			points = append(points, coord(cx)+","+coord(baseY-h)...)
			svg.AppendChild(El("circle", Attrs(
				"cx", coord(cx), "cy", coord(baseY-h), "r", "3", "class", "point",
			), tooltip))
		default:
			svg.AppendChild(El("rect", Attrs(
				"x", coord(cx-slot*0.4),
				"y", coord(baseY-h),
				"width", coord(slot*0.8),
				"height", coord(h),
				"class", "bar",
			), tooltip))
		}

		if i%step == 0 {
			svg.AppendChild(label(cx, baseY+16, "middle", labelAt(c.Labels, i)))
		}
	}

	if c.Kind == board.ChartLine {
		svg.AppendChild(El("polyline", Attrs("points", string(points), "class", "series", "fill", "none")))
	}
	return svg
}

func line(x1, y1, x2, y2 float64, class string) *html.Node {
	return El("line", Attrs(
		"x1", coord(x1), "y1", coord(y1), "x2", coord(x2), "y2", coord(y2), "class", class,
	))
}

func label(x, y float64, anchor, text string) *html.Node {
	return El("text", Attrs("x", coord(x), "y", coord(y), "text-anchor", anchor, "class", "tick"), Text(text))
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
