package board

import (
	"github.com/hitoshi/gardenboard/internal/model"
)

// 出席表セルの絵文字。
const (
	MarkPresent = "🌱"
	MarkAbsent  = "❌"
)

// LeadingHeaders は出席表の先頭に固定で並ぶ見出しセル。描画時に表示言語へ翻訳する。
var LeadingHeaders = []string{"순위", "정원사", "출석률"}

// RateRowLabel は末尾の日別出席率行のラベル。
const RateRowLabel = "일별 출석률"

// DateHeader は出席表の日付見出し1列分。
type DateHeader struct {
	Date  string
	Full  string // MM/DD (요일)
	Short string // MM/DD
}

// AttendanceRow は出席表の参加者1行。
type AttendanceRow struct {
	Rank           int
	ID             string
	AvatarURL      string
	AttendanceRate float64
	Marks          []bool
}

// MarkFor は i 列目の絵文字を返す。
func (r AttendanceRow) MarkFor(i int) string {
	if r.Marks[i] {
		return MarkPresent
	}
	return MarkAbsent
}

// Summary は出席表上部の集計値。
type Summary struct {
	OverallRate  float64
	TotalPresent int
	TotalAbsent  int
}

// FullView は出席表セクション全体の表示内容。
type FullView struct {
	Summary Summary
	Headers []DateHeader
	Rows    []AttendanceRow
	// Rates は Headers と同じ順序の日別出席率。
	Rates []float64
}

// AvatarResolver は参加者IDからアバターURLを求める。
type AvatarResolver func(participantID string) string

// GithubAvatar は既定のアバターURLを返す。
func GithubAvatar(participantID string) string {
	return "https://avatars.githubusercontent.com/" + participantID
}

// BuildFullView は出席統計から出席表セクションを構築する。
// 日付系列・日別出席率・出席行列の長さが一致しない場合はエラーを返し、補正しない。
func BuildFullView(stats *model.AttendanceStatistics, avatar AvatarResolver) (FullView, error) {
	if err := stats.Validate(); err != nil {
		return FullView{}, err
	}
	if avatar == nil {
		avatar = GithubAvatar
	}

	headers := DateHeaders(stats.Dates)

	rows := make([]AttendanceRow, len(stats.Users))
	for i, u := range stats.Users {
		marks := make([]bool, len(u.Attendance))
		copy(marks, u.Attendance)
		rows[i] = AttendanceRow{
			Rank:           u.Rank,
			ID:             u.ID,
			AvatarURL:      avatar(u.ID),
			AttendanceRate: u.AttendanceRate,
			Marks:          marks,
		}
	}

	rates := make([]float64, len(stats.DailyRates))
	for i, r := range stats.DailyRates {
		rates[i] = r.Rate
	}

	return FullView{
		Summary: Summary{
			OverallRate:  stats.OverallRate,
			TotalPresent: stats.TotalPresent,
			TotalAbsent:  stats.TotalAbsent,
		},
		Headers: headers,
		Rows:    rows,
		Rates:   rates,
	}, nil
}

// DateHeaders は日付系列から見出しを構築する。
func DateHeaders(dates []string) []DateHeader {
	headers := make([]DateHeader, len(dates))
	for i, d := range dates {
		headers[i] = DateHeader{
			Date:  d,
			Full:  FullDateLabel(d),
			Short: ShortDateLabel(d),
		}
	}
	return headers
}
