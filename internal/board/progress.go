// Package board はボードの各セクションのビューモデルと、それらを読み込むページコントローラを提供する。
// ビューモデルの構築は純粋関数であり、HTTPやHTMLには依存しない。
package board

import (
	"fmt"
	"math"
)

// ProgressView は進行率セクションの表示内容。
type ProgressView struct {
	TotalDays     int
	DaysCompleted int
	Percent       int
	Label         string
	// BarWidth はCSSの幅指定用。0〜100に丸め込む。ラベルの値は丸め込まない。
	BarWidth int
}

// Percent は daysCompleted / totalDays * 100 を四捨五入した値を返す。
// totalDays が0以下の場合は0を返す。
func Percent(daysCompleted, totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	return int(math.Round(float64(daysCompleted) / float64(totalDays) * 100))
}

// BuildProgressView は統計値から進行率セクションを構築する。
func BuildProgressView(totalDays, daysCompleted int) ProgressView {
	p := Percent(daysCompleted, totalDays)
	width := p
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	return ProgressView{
		TotalDays:     totalDays,
		DaysCompleted: daysCompleted,
		Percent:       p,
		Label:         fmt.Sprintf("%d일 중 %d일 진행 (%d%%)", totalDays, daysCompleted, p),
		BarWidth:      width,
	}
}
