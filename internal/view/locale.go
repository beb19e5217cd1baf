package view

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
)

// supportedLanguages は表示できる言語。先頭が既定値。
var supportedLanguages = []language.Tag{language.Korean, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// englishMessages は画面文言の英訳。キーは韓国語の文言そのもの。
var englishMessages = map[string]string{
	"정원사들":           "Gardeners",
	"진행 상황":          "Progress",
	"오늘의 출석":         "Today's attendance",
	"출석 현황":          "Attendance",
	"마지막 업데이트: %s":   "Last updated: %s",
	"전체 출석률":         "Overall rate",
	"출석":             "Present",
	"결석":             "Absent",
	"GitHub로 로그인":    "Sign in with GitHub",
	"로그아웃":           "Sign out",
	"새로고침":           "Refresh",
	"표시할 데이터가 없습니다.":  "No data to show.",
	"최근 활동":          "Recent activity",
	"최근 활동을 불러올 수 없습니다.": "Could not load recent activity.",
	"보드로 돌아가기":       "Back to the board",
	"출석 %d명 / 전체 %d명": "Present %d / Total %d",
	"순위":             "Rank",
	"정원사":            "Gardener",
	"출석률":            "Rate",
	"일별 출석률":         "Daily rate",
	"요일별 평균 출석률":     "Average rate by weekday",
	"시간대별 커밋 수":      "Commits by hour",
}

func init() {
	for key, msg := range englishMessages {
		if err := message.SetString(language.English, key, msg); err != nil {
			panic(fmt.Sprintf("invalid message %q: %v", key, err))
		}
	}
}

// Locale はページの表示言語と数値書式を表す。
type Locale struct {
	Tag     language.Tag
	printer *message.Printer
}

// NewLocale は言語タグからLocaleを生成する。
func NewLocale(tag language.Tag) Locale {
	return Locale{Tag: tag, printer: message.NewPrinter(tag)}
}

// NegotiateLocale は Accept-Language ヘッダーから表示言語を決める。
// 一致する言語がない場合は韓国語。
func NegotiateLocale(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return NewLocale(language.Korean)
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return NewLocale(language.Korean)
	}
	return NewLocale(supportedLanguages[index])
}

// IsKorean は表示言語が韓国語かどうか。
func (l Locale) IsKorean() bool {
	base, _ := l.Tag.Base()
	korean, _ := language.Korean.Base()
	return base == korean
}

// Lang はhtml要素のlang属性値を返す。
func (l Locale) Lang() string {
	if l.IsKorean() {
		return "ko"
	}
	return "en"
}

// T は文言を表示言語に翻訳する。
func (l Locale) T(key string, args ...any) string {
	return l.p().Sprintf(key, args...)
}

// Number は桁区切り付きの整数を返す。
func (l Locale) Number(n int) string {
	return l.p().Sprintf("%d", n)
}

// Percent はバックエンドの出席率をそのまま "{rate}%" にする。
func Percent(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}

// LongDate は YYYY-MM-DD を見出し用の日付にする。
// 韓国語は "2024년 3월 1일 금요일"、英語は "Friday, March 1, 2024"。
func (l Locale) LongDate(date string) string {
	t, err := board.ParseDate(date)
	if err != nil {
		return date
	}
	if l.IsKorean() {
		return fmt.Sprintf("%d년 %d월 %d일 %s요일", t.Year(), int(t.Month()), t.Day(), board.KoreanWeekday(t.Weekday()))
	}
	return t.Format("Monday, January 2, 2006")
}

// Timestamp は時刻をボードのタイムゾーンで表示する。
// バックエンドがUTCなど別のオフセットで返した時刻もボードの暦に揃える。
func (l Locale) Timestamp(t time.Time) string {
	if loc := model.TimestampLocation; loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04:05")
}

func (l Locale) p() *message.Printer {
	if l.printer == nil {
		return message.NewPrinter(language.Korean)
	}
	return l.printer
}
