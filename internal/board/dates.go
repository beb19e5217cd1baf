package board

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// koreanWeekdays は曜日の短縮表記（日曜始まり）。
var koreanWeekdays = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// DateKey は時刻をlocの暦日に直して YYYY-MM-DD を返す。
// UTCに変換してから切り出すと日付がずれるため、ローカルの年・月・日から組み立てる。
func DateKey(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDate は YYYY-MM-DD を暦日として解釈する。
// 曜日計算だけに使うため、ロケーションはUTCで固定する。
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// KoreanWeekday は曜日の短縮表記を返す。
func KoreanWeekday(wd time.Weekday) string {
	return koreanWeekdays[wd]
}

// FullDateLabel は "MM/DD (요일)" 形式の見出しを返す。
// パースできない場合は入力をそのまま返す。
func FullDateLabel(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d/%02d (%s)", int(t.Month()), t.Day(), KoreanWeekday(t.Weekday()))
}

// ShortDateLabel は狭い画面向けの "MM/DD" 形式の見出しを返す。
func ShortDateLabel(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d/%02d", int(t.Month()), t.Day())
}
