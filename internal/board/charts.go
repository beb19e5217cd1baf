package board

import (
	"fmt"
	"math"

	"github.com/hitoshi/gardenboard/internal/model"
)

// ChartKind はグラフの描画形式。
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
)

// チャートID。ページ上の描画領域と一対一に対応する。
const (
	ChartDailyRate   = "daily-rate-chart"
	ChartWeekdayRate = "weekday-rate-chart"
	ChartHourly      = "hourly-commit-chart"
)

// HoursPerDay は時間帯別コミット数のバケット数。
const HoursPerDay = 24

// Chart は描画するグラフ1つ分のデータ。
// ページ状態が所有する不変の値であり、グローバルなインスタンスは持たない。
type Chart struct {
	ID     string
	Kind   ChartKind
	// Title は韓国語の文言。描画時に翻訳キーとして使う。
	Title  string
	Unit   string
	Labels []string
	Values []float64
	// MaxValue はY軸の上限。0の場合は値の最大値を使う。
	MaxValue float64
}

// Max はY軸の上限値を返す。
func (c Chart) Max() float64 {
	if c.MaxValue > 0 {
		return c.MaxValue
	}
	m := 0.0
	for _, v := range c.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// HourlyBuckets は時間帯別コミット数を24要素の配列にする。
// 既定値は0で、報告された時間帯だけを上書きする。範囲外の時間帯は無視し、その数を返す。
func HourlyBuckets(commits []model.HourlyCommit) (counts [HoursPerDay]int, ignored int) {
	for _, c := range commits {
		if c.Hour < 0 || c.Hour >= HoursPerDay {
			ignored++
			continue
		}
		counts[c.Hour] = c.Count
	}
	return counts, ignored
}

// HourlyCommitChart は時間帯別コミット数の棒グラフを構築する。
func HourlyCommitChart(counts [HoursPerDay]int) Chart {
	labels := make([]string, HoursPerDay)
	values := make([]float64, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		labels[h] = fmt.Sprintf("%d시", h)
		values[h] = float64(counts[h])
	}
	return Chart{
		ID:     ChartHourly,
		Kind:   ChartBar,
		Title:  "시간대별 커밋 수",
		Unit:   "",
		Labels: labels,
		Values: values,
	}
}

// DailyRateChart は日付系列に沿った日別出席率の折れ線グラフを構築する。
func DailyRateChart(stats *model.AttendanceStatistics) Chart {
	labels := make([]string, len(stats.Dates))
	values := make([]float64, len(stats.DailyRates))
	for i, d := range stats.Dates {
		labels[i] = ShortDateLabel(d)
	}
	for i, r := range stats.DailyRates {
		values[i] = r.Rate
	}
	return Chart{
		ID:       ChartDailyRate,
		Kind:     ChartLine,
		Title:    "일별 출석률",
		Unit:     "%",
		Labels:   labels,
		Values:   values,
		MaxValue: 100,
	}
}

// WeekdayAverages は各日付の出席率を曜日ごと（0=日曜〜6=土曜）に合計して平均し、四捨五入する。
// 該当日付のない曜日は0とする。パースできない日付は集計から除外する。
func WeekdayAverages(dates []string, rates []float64) [7]int {
	var sums [7]float64
	var counts [7]int
	for i, d := range dates {
		if i >= len(rates) {
			break
		}
		t, err := ParseDate(d)
		if err != nil {
			continue
		}
		wd := t.Weekday()
		sums[wd] += rates[i]
		counts[wd]++
	}

	var avg [7]int
	for wd := range avg {
		if counts[wd] == 0 {
			continue
		}
		avg[wd] = int(math.Round(sums[wd] / float64(counts[wd])))
	}
	return avg
}

// WeekdayRateChart は曜日別平均出席率の棒グラフを構築する。
func WeekdayRateChart(stats *model.AttendanceStatistics) Chart {
	rates := make([]float64, len(stats.DailyRates))
	for i, r := range stats.DailyRates {
		rates[i] = r.Rate
	}
	avg := WeekdayAverages(stats.Dates, rates)

	labels := make([]string, 7)
	values := make([]float64, 7)
	for wd := 0; wd < 7; wd++ {
		labels[wd] = koreanWeekdays[wd]
		values[wd] = float64(avg[wd])
	}
	return Chart{
		ID:       ChartWeekdayRate,
		Kind:     ChartBar,
		Title:    "요일별 평균 출석률",
		Unit:     "%",
		Labels:   labels,
		Values:   values,
		MaxValue: 100,
	}
}
