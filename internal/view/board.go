package view

import (
	"strconv"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/notifier"
)

// ページ上のセクションID。
const (
	SectionAuth     = "auth-status"
	SectionBanners  = "banners"
	SectionRoster   = "gardeners"
	SectionProgress = "progress"
	SectionDaily    = "daily-attendance"
	SectionFull     = "full-attendance"
)

// 描画先のパス。
const (
	LoginPath   = "/api/auth/login"
	LogoutPath  = "/api/auth/logout"
	RefreshPath = "/refresh"
	// CSRFField は手動更新フォームでCSRFトークンを送るフィールド名。
	CSRFField = "csrf_token"
)

// BoardPage はボードページの描画入力。
type BoardPage struct {
	Title     string
	State     board.State
	Locale    Locale
	CSRFToken string
	// Now はバナーの残り表示時間の計算に使う。
	Now time.Time
}

// BoardBody はボードページのbody要素を組み立てる。
// 共有スナップショット由来のセクションには data-section 属性が付き、差分比較の対象になる。
// ログイン状態とバナーはリクエストごとに異なるため対象外。
func BoardBody(p BoardPage) *html.Node {
	l := p.Locale
	s := p.State

	return El("body", nil,
		Banners(s.Banners, p.Now),
		El("header", Attrs("class", "board-header"),
			El("h1", nil, Text(p.Title)),
			AuthStatus(s.Auth, l, p.CSRFToken),
		),
		El("main", nil,
			RosterSection(s.Roster, l),
			ProgressSection(s.Progress, l),
			DailySection(s.Daily, s.Today, l),
			FullSection(s.Full, l),
			chartOrEmpty(s.DailyChart, board.ChartDailyRate, l),
			chartOrEmpty(s.WeekdayChart, board.ChartWeekdayRate, l),
			chartOrEmpty(s.HourlyChart, board.ChartHourly, l),
		),
	)
}

// Banners は表示中のバナーを描画する。
// data-ttl-ms は残り表示時間で、ページ側のスクリプトがその時間後に要素を取り除く。
func Banners(banners []notifier.Banner, now time.Time) *html.Node {
	container := El("div", Attrs("id", SectionBanners, "class", "banners", "aria-live", "polite"))
	for _, b := range banners {
		remaining := b.ExpiresAt.Sub(now)
		if remaining <= 0 {
			continue
		}
		class := "banner"
		if b.IsError {
			class += " banner-error"
		}
		container.AppendChild(El("div", Attrs(
			"class", class,
			"role", "alert",
			"data-banner-id", b.ID,
			"data-ttl-ms", strconv.FormatInt(remaining.Milliseconds(), 10),
		), Text(b.Message)))
	}
	return container
}

// AuthStatus はログイン状態を描画する。
// ログイン中はプロフィールとログアウト、権限があれば手動更新フォームを出す。
func AuthStatus(v board.AuthView, l Locale, csrfToken string) *html.Node {
	container := El("div", Attrs("id", SectionAuth, "class", "auth-status"))
	if !v.SignedIn() {
		container.AppendChild(El("a", Attrs("href", LoginPath, "class", "login"), Text(l.T("GitHub로 로그인"))))
		return container
	}

	session := v.Session
	container.AppendChild(El("a", Attrs("href", model.ProfilePath(session.ParticipantID), "class", "profile"),
		avatar(session.AvatarURL, session.ParticipantID),
		El("span", Attrs("class", "name"), Text(session.ParticipantID)),
	))
	if v.ShowRefresh() {
		container.AppendChild(El("form", Attrs("method", "post", "action", RefreshPath, "class", "refresh"),
			El("input", Attrs("type", "hidden", "name", CSRFField, "value", csrfToken)),
			El("button", Attrs("type", "submit"), Text(l.T("새로고침"))),
		))
	}
	container.AppendChild(El("a", Attrs("href", LogoutPath, "class", "logout"), Text(l.T("로그아웃"))))
	return container
}

// RosterSection は参加者一覧を描画する。
func RosterSection(v *board.RosterView, l Locale) *html.Node {
	sec := Section(SectionRoster, El("h2", nil, Text(l.T("정원사들"))))
	if v == nil {
		sec.AppendChild(empty(l))
		return sec
	}
	list := El("ul", Attrs("class", "gardeners"))
	for _, p := range v.Participants {
		list.AppendChild(El("li", Attrs("class", "gardener"),
			El("a", Attrs("href", p.ProfilePath()),
				avatar(p.AvatarURL, p.ID),
				El("span", Attrs("class", "name"), Text(p.DisplayName())),
			),
		))
	}
	sec.AppendChild(list)
	return sec
}

// ProgressSection は進行率を描画する。
func ProgressSection(v *board.ProgressView, l Locale) *html.Node {
	sec := Section(SectionProgress, El("h2", nil, Text(l.T("진행 상황"))))
	if v == nil {
		sec.AppendChild(empty(l))
		return sec
	}
	sec.AppendChild(El("progress", Attrs(
		"class", "progress-bar",
		"max", "100",
		"value", strconv.Itoa(v.BarWidth),
	), Text(strconv.Itoa(v.Percent)+"%")))
	sec.AppendChild(El("p", Attrs("class", "progress-label"), Text(v.Label)))
	return sec
}

// DailySection は当日の出席を描画する。最終更新時刻は見出しの直後に置く。
func DailySection(v *board.DailyView, today string, l Locale) *html.Node {
	date := today
	if v != nil {
		date = v.Date
	}
	sec := Section(SectionDaily,
		El("h2", nil, Text(l.T("오늘의 출석"))),
		El("h3", Attrs("class", "date"), Text(l.LongDate(date))),
	)
	if v == nil {
		sec.AppendChild(empty(l))
		return sec
	}
	if v.LastUpdated != nil {
		sec.AppendChild(El("p", Attrs("class", "last-updated"), Text(l.T("마지막 업데이트: %s", l.Timestamp(*v.LastUpdated)))))
	}
	sec.AppendChild(El("p", Attrs("class", "daily-count"), Text(l.T("출석 %d명 / 전체 %d명", v.AttendedCount(), len(v.Entries)))))

	list := El("ul", Attrs("class", "daily"))
	for _, e := range v.Entries {
		class := "absent"
		if e.Attended {
			class = "attended"
		}
		list.AppendChild(El("li", Attrs("class", class),
			El("span", Attrs("class", "emoji"), Text(e.Emoji())),
			El("a", Attrs("href", e.Participant.ProfilePath()), Text(e.Participant.DisplayName())),
		))
	}
	sec.AppendChild(list)
	return sec
}

// FullSection は出席表を描画する。
// 集計値、見出し行、参加者行、日別出席率行の順に並べる。
func FullSection(v *board.FullView, l Locale) *html.Node {
	sec := Section(SectionFull, El("h2", nil, Text(l.T("출석 현황"))))
	if v == nil {
		sec.AppendChild(empty(l))
		return sec
	}

	sec.AppendChild(El("dl", Attrs("class", "summary"),
		El("dt", nil, Text(l.T("전체 출석률"))),
		El("dd", Attrs("class", "overall-rate"), Text(Percent(v.Summary.OverallRate))),
		El("dt", nil, Text(l.T("출석"))),
		El("dd", Attrs("class", "total-present"), Text(l.Number(v.Summary.TotalPresent))),
		El("dt", nil, Text(l.T("결석"))),
		El("dd", Attrs("class", "total-absent"), Text(l.Number(v.Summary.TotalAbsent))),
	))

	headRow := El("tr", nil)
	for _, h := range board.LeadingHeaders {
		headRow.AppendChild(El("th", Attrs("scope", "col"), Text(l.T(h))))
	}
	for _, h := range v.Headers {
		headRow.AppendChild(dateHeader(h))
	}

	body := El("tbody", nil)
	for _, row := range v.Rows {
		tr := El("tr", nil,
			El("td", Attrs("class", "rank"), Text(strconv.Itoa(row.Rank))),
			El("td", Attrs("class", "gardener"),
				El("a", Attrs("href", model.ProfilePath(row.ID)),
					avatar(row.AvatarURL, row.ID),
					El("span", Attrs("class", "name"), Text(row.ID)),
				),
			),
			El("td", Attrs("class", "rate"), Text(Percent(row.AttendanceRate))),
		)
		for i := range row.Marks {
			tr.AppendChild(El("td", Attrs("class", "mark"), Text(row.MarkFor(i))))
		}
		body.AppendChild(tr)
	}

	rateRow := El("tr", Attrs("class", "daily-rates"),
		El("th", Attrs("scope", "row", "colspan", strconv.Itoa(len(board.LeadingHeaders))), Text(l.T(board.RateRowLabel))),
	)
	for _, r := range v.Rates {
		rateRow.AppendChild(El("td", Attrs("class", "rate"), Text(Percent(r))))
	}

	sec.AppendChild(El("div", Attrs("class", "table-scroll"),
		El("table", Attrs("class", "attendance"),
			El("thead", nil, headRow),
			body,
			El("tfoot", nil, rateRow),
		),
	))
	return sec
}

func dateHeader(h board.DateHeader) *html.Node {
	return El("th", Attrs("scope", "col", "title", h.Date),
		El("span", Attrs("class", "date-full"), Text(h.Full)),
		El("span", Attrs("class", "date-short"), Text(h.Short)),
	)
}

func chartOrEmpty(c *board.Chart, id string, l Locale) *html.Node {
	if c == nil {
		return El("figure", Attrs("id", id, sectionAttr, id, "class", "chart"), empty(l))
	}
	return ChartFigure(*c, l)
}

func avatar(src, alt string) *html.Node {
	src = safeURL(src)
	if src == "" {
		return nil
	}
	return El("img", Attrs("class", "avatar", "src", src, "alt", alt, "width", "32", "height", "32", "loading", "lazy"))
}

func empty(l Locale) *html.Node {
	return El("p", Attrs("class", "empty"), Text(l.T("표시할 데이터가 없습니다.")))
}
