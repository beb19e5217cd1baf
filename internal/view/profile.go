package view

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/hitoshi/gardenboard/internal/activity"
	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
)

// SectionProfile はプロフィールページの本体セクション。
const SectionProfile = "profile"

// ProfilePage はプロフィールページの描画入力。
type ProfilePage struct {
	Title       string
	Locale      Locale
	Participant model.Participant
	// Stat は出席統計の該当行。統計を取得できなかった場合はnil。
	Stat     *model.UserStat
	Headers  []board.DateHeader
	Activity []activity.Entry
	// ActivityFailed は最近の活動を取得できなかったことを示す。
	ActivityFailed bool
}

// ProfileBody はプロフィールページのbody要素を組み立てる。
func ProfileBody(p ProfilePage) *html.Node {
	l := p.Locale
	who := p.Participant

	sec := Section(SectionProfile,
		El("h2", Attrs("class", "profile-name"),
			avatar(who.AvatarURL, who.ID),
			El("span", Attrs("class", "name"), Text(who.DisplayName())),
		),
	)
	if p.Stat != nil {
		sec.AppendChild(statTable(*p.Stat, p.Headers, l))
	} else {
		sec.AppendChild(empty(l))
	}
	sec.AppendChild(activitySection(p, l))

	return El("body", nil,
		El("header", Attrs("class", "board-header"),
			El("h1", nil, El("a", Attrs("href", "/"), Text(p.Title))),
			El("a", Attrs("href", "/", "class", "back"), Text(l.T("보드로 돌아가기"))),
		),
		El("main", nil, sec),
	)
}

func statTable(s model.UserStat, headers []board.DateHeader, l Locale) *html.Node {
	headRow := El("tr", nil,
		El("th", Attrs("scope", "col"), Text(l.T("순위"))),
		El("th", Attrs("scope", "col"), Text(l.T("출석률"))),
		El("th", Attrs("scope", "col"), Text(l.T("출석"))),
	)
	row := El("tr", nil,
		El("td", Attrs("class", "rank"), Text(strconv.Itoa(s.Rank))),
		El("td", Attrs("class", "rate"), Text(Percent(s.AttendanceRate))),
		El("td", Attrs("class", "attended-count"), Text(l.Number(s.AttendedCount))),
	)
	for i, h := range headers {
		if i >= len(s.Attendance) {
			break
		}
		headRow.AppendChild(dateHeader(h))
		mark := board.MarkAbsent
		if s.Attendance[i] {
			mark = board.MarkPresent
		}
		row.AppendChild(El("td", Attrs("class", "mark"), Text(mark)))
	}
	return El("div", Attrs("class", "table-scroll"),
		El("table", Attrs("class", "attendance profile-stats"),
			El("thead", nil, headRow),
			El("tbody", nil, row),
		),
	)
}

func activitySection(p ProfilePage, l Locale) *html.Node {
	sec := El("div", Attrs("class", "activity"), El("h3", nil, Text(l.T("최근 활동"))))
	if p.ActivityFailed {
		sec.AppendChild(El("p", Attrs("class", "empty"), Text(l.T("최근 활동을 불러올 수 없습니다."))))
		return sec
	}
	if len(p.Activity) == 0 {
		sec.AppendChild(empty(l))
		return sec
	}

	list := El("ol", Attrs("class", "activity-list"))
	for _, e := range p.Activity {
		var title *html.Node
		if link := safeURL(e.Link); link != "" {
			title = El("a", Attrs("href", link, "rel", "noopener noreferrer", "target", "_blank"), Text(e.Title))
		} else {
			title = El("span", nil, Text(e.Title))
		}
		item := El("li", nil, title)
		if e.Published != nil {
			item.AppendChild(El("time", Attrs("datetime", e.Published.Format("2006-01-02T15:04:05Z07:00")), Text(l.Timestamp(*e.Published))))
		}
		if e.Content != "" {
			item.AppendChild(Fragment("activity-content", e.Content))
		}
		list.AppendChild(item)
	}
	sec.AppendChild(list)
	return sec
}
