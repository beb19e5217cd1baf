package view

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/hitoshi/gardenboard/internal/activity"
	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/notifier"
)

var korean = NewLocale(language.Korean)

func scenarioState(t *testing.T) board.State {
	t.Helper()
	stats := &model.AttendanceStatistics{
		TotalDays:     100,
		DaysCompleted: 2,
		OverallRate:   75,
		TotalPresent:  1234,
		TotalAbsent:   5,
		Dates:         []string{"2024-01-01", "2024-01-02"},
		DailyRates:    []model.DailyRate{{Date: "2024-01-01", Rate: 50}, {Date: "2024-01-02", Rate: 100}},
		Users: []model.UserStat{
			{Rank: 1, ID: "a", AttendanceRate: 75, Attendance: []bool{true, true}},
		},
	}
	full, err := board.BuildFullView(stats, nil)
	if err != nil {
		t.Fatalf("BuildFullView: %v", err)
	}
	progress := board.BuildProgressView(stats.TotalDays, stats.DaysCompleted)
	updated := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	daily := board.DailyView{
		Date: "2024-03-01",
		Entries: []board.DailyEntry{
			{Participant: model.Participant{ID: "a"}, Attended: true},
			{Participant: model.Participant{ID: "b"}, Attended: false},
		},
		LastUpdated: &updated,
	}
	dailyChart := board.DailyRateChart(stats)
	weekday := board.WeekdayRateChart(stats)
	var counts [board.HoursPerDay]int
	counts[9] = 4
	hourly := board.HourlyCommitChart(counts)

	return board.State{
		Snapshot: board.Snapshot{
			Roster: &board.RosterView{Participants: []model.Participant{
				{ID: "a", AvatarURL: "https://avatars.githubusercontent.com/a"},
				{ID: "b", AvatarURL: "javascript:alert(1)"},
			}},
			Progress:     &progress,
			Daily:        &daily,
			Full:         &full,
			DailyChart:   &dailyChart,
			WeekdayChart: &weekday,
			HourlyChart:  &hourly,
		},
		Today: "2024-03-01",
	}
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func TestBoardBody_FullAttendanceTable(t *testing.T) {
	body := BoardBody(BoardPage{Title: "Garden", State: scenarioState(t), Locale: korean})
	out := RenderString(findByID(body, SectionFull))

	for _, want := range []string{
		"<th scope=\"col\">순위</th>", "<th scope=\"col\">정원사</th>", "<th scope=\"col\">출석률</th>",
		"01/01 (월)", "01/02", "🌱", "일별 출석률", ">50%<", ">100%<", ">75%<", "1,234",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("出席表に %q が含まれていない:\n%s", want, out)
		}
	}
	if strings.Contains(out, "❌") {
		t.Error("全日出席の行に❌があってはならない")
	}
	if c := strings.Count(out, `<td class="mark">🌱</td>`); c != 2 {
		t.Errorf("🌱セル数 = %d, want 2", c)
	}
}

// withTimestampLocation はテスト中だけボードのタイムゾーンを差し替える。
func withTimestampLocation(t *testing.T, loc *time.Location) {
	t.Helper()
	prev := model.TimestampLocation
	model.TimestampLocation = loc
	t.Cleanup(func() { model.TimestampLocation = prev })
}

func TestBoardBody_EnglishTableAndChartLabels(t *testing.T) {
	english := NewLocale(language.English)
	body := BoardBody(BoardPage{Title: "Garden", State: scenarioState(t), Locale: english})

	full := RenderString(findByID(body, SectionFull))
	for _, want := range []string{
		"<th scope=\"col\">Rank</th>", "<th scope=\"col\">Gardener</th>", "<th scope=\"col\">Rate</th>", ">Daily rate</th>",
	} {
		if !strings.Contains(full, want) {
			t.Errorf("英語の出席表に %q が含まれていない:\n%s", want, full)
		}
	}
	for _, ko := range []string{"순위", "정원사", "일별 출석률"} {
		if strings.Contains(full, ">"+ko+"<") {
			t.Errorf("英語の出席表に韓国語の見出し %q が残っている", ko)
		}
	}

	charts := map[string]string{
		board.ChartDailyRate:   "Daily rate",
		board.ChartWeekdayRate: "Average rate by weekday",
		board.ChartHourly:      "Commits by hour",
	}
	for id, want := range charts {
		out := RenderString(findByID(body, id))
		if !strings.Contains(out, "<figcaption>"+want+"</figcaption>") || !strings.Contains(out, `aria-label="`+want+`"`) {
			t.Errorf("チャート %s のタイトルが翻訳されていない: %s", id, out)
		}
	}
}

func TestBoardBody_DailyLastUpdatedFollowsHeading(t *testing.T) {
	withTimestampLocation(t, time.UTC)
	body := BoardBody(BoardPage{State: scenarioState(t), Locale: korean})
	children := elementChildren(findByID(body, SectionDaily))

	if len(children) < 4 {
		t.Fatalf("子要素数 = %d", len(children))
	}
	if children[1].Data != "h3" || RenderString(children[1]) != `<h3 class="date">2024년 3월 1일 금요일</h3>` {
		t.Errorf("日付見出し = %s", RenderString(children[1]))
	}
	if attr(children[2], "class") != "last-updated" {
		t.Errorf("最終更新は見出しの直後に置くべき: %s", RenderString(children[2]))
	}
	if !strings.Contains(RenderString(children[2]), "2024-03-01 10:30:00") {
		t.Errorf("最終更新 = %s", RenderString(children[2]))
	}

	out := RenderString(findByID(body, SectionDaily))
	if !strings.Contains(out, "💤") || !strings.Contains(out, ">b</a>") {
		t.Error("欠席者も💤で表示されるべき")
	}
}

func TestBoardBody_DailyWithoutTimestamp(t *testing.T) {
	state := scenarioState(t)
	state.Daily.LastUpdated = nil

	out := RenderString(findByID(BoardBody(BoardPage{State: state, Locale: korean}), SectionDaily))
	if strings.Contains(out, "last-updated") {
		t.Error("更新時刻がない場合は最終更新行を出さない")
	}
}

func TestBoardBody_EmptySections(t *testing.T) {
	body := BoardBody(BoardPage{State: board.State{Today: "2024-03-01"}, Locale: korean})
	for _, id := range []string{SectionRoster, SectionProgress, SectionDaily, SectionFull, board.ChartHourly} {
		sec := findByID(body, id)
		if sec == nil {
			t.Errorf("セクション %s がない", id)
			continue
		}
		if !strings.Contains(RenderString(sec), "표시할 데이터가 없습니다.") {
			t.Errorf("セクション %s は空表示になるべき", id)
		}
	}
}

func TestBoardBody_EscapesBackendStrings(t *testing.T) {
	state := scenarioState(t)
	state.Roster.Participants = []model.Participant{{ID: "<script>alert(1)</script>"}}

	out := RenderString(findByID(BoardBody(BoardPage{State: state, Locale: korean}), SectionRoster))
	if strings.Contains(out, "<script>") {
		t.Errorf("バックエンドの文字列はエスケープされるべき: %s", out)
	}
}

func TestRosterSection_DropsUnsafeAvatar(t *testing.T) {
	out := RenderString(RosterSection(scenarioState(t).Roster, korean))
	if strings.Contains(out, "javascript:") {
		t.Error("http(s)以外のアバターURLは出力しない")
	}
	if !strings.Contains(out, `href="/users/a"`) {
		t.Errorf("プロフィールへのリンクがない: %s", out)
	}
}

func TestProgressSection(t *testing.T) {
	v := board.BuildProgressView(100, 150)
	out := RenderString(ProgressSection(&v, korean))
	if !strings.Contains(out, `value="100"`) {
		t.Errorf("バーは100に丸め込むべき: %s", out)
	}
	if !strings.Contains(out, "100일 중 150일 진행 (150%)") {
		t.Errorf("ラベルは丸め込まない: %s", out)
	}
}

func TestAuthStatus(t *testing.T) {
	privileged := board.BuildAuthView(&model.SessionPayload{GithubID: "junho85"}, board.NewPrivilegedSet([]string{"junho85"}))
	regular := board.BuildAuthView(&model.SessionPayload{GithubID: "someoneElse"}, board.NewPrivilegedSet([]string{"junho85"}))

	tests := []struct {
		name        string
		view        board.AuthView
		wantLogin   bool
		wantRefresh bool
	}{
		{"junho85", privileged, false, true},
		{"someoneElse", regular, false, false},
		{"未ログイン", board.AuthView{}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderString(AuthStatus(tt.view, korean, "tok"))
			if got := strings.Contains(out, LoginPath); got != tt.wantLogin {
				t.Errorf("ログインボタン = %v, want %v", got, tt.wantLogin)
			}
			if got := strings.Contains(out, RefreshPath); got != tt.wantRefresh {
				t.Errorf("更新ボタン = %v, want %v", got, tt.wantRefresh)
			}
			if tt.wantRefresh && !strings.Contains(out, `name="csrf_token" value="tok"`) {
				t.Errorf("CSRFトークンがフォームにない: %s", out)
			}
			if !tt.wantLogin && !strings.Contains(out, LogoutPath) {
				t.Error("ログイン中はログアウトを表示するべき")
			}
		})
	}
}

func TestBanners(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	banners := []notifier.Banner{
		{ID: "1", Message: "오류", IsError: true, CreatedAt: now.Add(-time.Second), ExpiresAt: now.Add(2 * time.Second)},
		{ID: "2", Message: "expired", CreatedAt: now.Add(-5 * time.Second), ExpiresAt: now.Add(-time.Second)},
	}
	out := RenderString(Banners(banners, now))
	if !strings.Contains(out, `data-ttl-ms="2000"`) || !strings.Contains(out, "banner-error") {
		t.Errorf("バナー = %s", out)
	}
	if strings.Contains(out, "expired") {
		t.Error("期限切れのバナーは描画しない")
	}
}

func TestChartFigure(t *testing.T) {
	var counts [board.HoursPerDay]int
	counts[3] = 5
	out := RenderString(ChartFigure(board.HourlyCommitChart(counts), korean))
	if c := strings.Count(out, "<rect "); c != board.HoursPerDay {
		t.Errorf("棒の数 = %d, want %d", c, board.HoursPerDay)
	}
	if !strings.Contains(out, `data-section="hourly-commit-chart"`) {
		t.Error("チャートは差分比較の対象になるべき")
	}

	stats := &model.AttendanceStatistics{
		Dates:      []string{"2024-01-01", "2024-01-02"},
		DailyRates: []model.DailyRate{{Rate: 50}, {Rate: 100}},
	}
	line := RenderString(ChartFigure(board.DailyRateChart(stats), korean))
	if !strings.Contains(line, "<polyline") || strings.Count(line, "<circle") != 2 {
		t.Errorf("折れ線グラフ = %s", line)
	}
}

func TestChartFigure_Empty(t *testing.T) {
	out := RenderString(ChartFigure(board.Chart{ID: "x", Kind: board.ChartBar}, korean))
	if strings.Contains(out, "<rect") {
		t.Error("値がない場合は棒を描かない")
	}
}

func TestSectionFingerprintsAndDiff(t *testing.T) {
	state := scenarioState(t)
	first := SectionFingerprints(BoardBody(BoardPage{State: state, Locale: korean}))

	if _, ok := first[SectionAuth]; ok {
		t.Error("ログイン状態は差分比較の対象外")
	}
	if _, ok := first[SectionBanners]; ok {
		t.Error("バナーは差分比較の対象外")
	}
	if len(first) != 7 {
		t.Errorf("セクション数 = %d, want 7: %v", len(first), first)
	}

	state.Auth = board.BuildAuthView(&model.SessionPayload{GithubID: "junho85"}, nil)
	same := SectionFingerprints(BoardBody(BoardPage{State: state, Locale: korean}))
	if changed := Diff(first, same); len(changed) != 0 {
		t.Errorf("ログイン状態の変化は差分にならない: %v", changed)
	}

	progress := board.BuildProgressView(100, 3)
	state.Progress = &progress
	next := SectionFingerprints(BoardBody(BoardPage{State: state, Locale: korean}))
	changed := Diff(first, next)
	if len(changed) != 1 || changed[0] != SectionProgress {
		t.Errorf("changed = %v, want [progress]", changed)
	}
}

func TestDiff_AddedAndRemoved(t *testing.T) {
	changed := Diff(Fingerprints{"a": "1", "b": "2"}, Fingerprints{"b": "2", "c": "3"})
	if len(changed) != 2 || changed[0] != "a" || changed[1] != "c" {
		t.Errorf("changed = %v, want [a c]", changed)
	}
}

func TestETag(t *testing.T) {
	a := ETag([]byte("page"))
	if a != ETag([]byte("page")) {
		t.Error("同じ内容は同じETagになるべき")
	}
	if a == ETag([]byte("page2")) {
		t.Error("異なる内容は異なるETagになるべき")
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETagは引用符で囲むべき: %s", a)
	}
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page("<Garden>", "ko", El("body", nil, Text("hi"))).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<!doctype html>", `<html lang="ko">`, "&lt;Garden&gt;", "<body>hi</body>", "/static/board.js"} {
		if !strings.Contains(out, want) {
			t.Errorf("ページに %q が含まれていない", want)
		}
	}
}

func TestStaticFS(t *testing.T) {
	for _, name := range []string{"board.css", "board.js"} {
		f, err := StaticFS().Open(name)
		if err != nil {
			t.Errorf("%s が埋め込まれていない: %v", name, err)
			continue
		}
		f.Close()
	}
}

func TestNegotiateLocale(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "ko"},
		{"ko-KR,ko;q=0.9", "ko"},
		{"en-US,en;q=0.9", "en"},
		{"ja-JP", "ko"},
		{"!!invalid", "ko"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := NegotiateLocale(tt.header).Lang(); got != tt.want {
				t.Errorf("NegotiateLocale(%q) = %s, want %s", tt.header, got, tt.want)
			}
		})
	}
}

func TestLocale_Formatting(t *testing.T) {
	english := NewLocale(language.English)

	if got := korean.LongDate("2024-03-01"); got != "2024년 3월 1일 금요일" {
		t.Errorf("korean LongDate = %s", got)
	}
	if got := english.LongDate("2024-03-01"); got != "Friday, March 1, 2024" {
		t.Errorf("english LongDate = %s", got)
	}
	if got := korean.LongDate("bad"); got != "bad" {
		t.Errorf("パースできない日付はそのまま返す: %s", got)
	}
	if got := english.Number(1234567); got != "1,234,567" {
		t.Errorf("Number = %s", got)
	}
	if got := english.T("정원사들"); got != "Gardeners" {
		t.Errorf("T = %s", got)
	}
	if got := korean.T("정원사들"); got != "정원사들" {
		t.Errorf("T = %s", got)
	}
	if got := Percent(66.5); got != "66.5%" {
		t.Errorf("Percent = %s", got)
	}
}

func TestFragment(t *testing.T) {
	out := RenderString(Fragment("c", "<p>commit <strong>1</strong></p>"))
	if out != `<div class="c"><p>commit <strong>1</strong></p></div>` {
		t.Errorf("Fragment = %s", out)
	}
}

func TestLocale_TimestampUsesBoardZone(t *testing.T) {
	withTimestampLocation(t, time.FixedZone("KST", 9*60*60))

	updated, err := model.ParseTimestamp("2024-05-01T01:30:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if got := korean.Timestamp(updated); got != "2024-05-01 10:30:00" {
		t.Errorf("Timestamp = %s, want 2024-05-01 10:30:00", got)
	}

	state := scenarioState(t)
	state.Daily.LastUpdated = &updated
	out := RenderString(findByID(BoardBody(BoardPage{State: state, Locale: korean}), SectionDaily))
	if !strings.Contains(out, "2024-05-01 10:30:00") {
		t.Errorf("最終更新はボードのタイムゾーンで表示するべき: %s", out)
	}
}

func TestProfileBody(t *testing.T) {
	withTimestampLocation(t, time.UTC)
	published := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	page := ProfilePage{
		Title:       "Garden",
		Locale:      korean,
		Participant: model.Participant{ID: "junho85", AvatarURL: "https://avatars.githubusercontent.com/junho85"},
		Stat:        &model.UserStat{Rank: 2, ID: "junho85", AttendanceRate: 50, AttendedCount: 1, Attendance: []bool{true, false}},
		Headers:     board.DateHeaders([]string{"2024-01-01", "2024-01-02"}),
		Activity: []activity.Entry{
			{Title: "pushed to main", Link: "https://github.com/junho85/garden", Content: "<p>ok</p>", Published: &published},
		},
	}
	out := RenderString(ProfileBody(page))
	for _, want := range []string{"junho85", "50%", "🌱", "❌", "pushed to main", "<p>ok</p>", "2024-03-01 09:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("プロフィールに %q が含まれていない", want)
		}
	}

	page.Activity = nil
	page.ActivityFailed = true
	page.Stat = nil
	out = RenderString(ProfileBody(page))
	if !strings.Contains(out, "최근 활동을 불러올 수 없습니다.") || !strings.Contains(out, "표시할 데이터가 없습니다.") {
		t.Errorf("取得失敗の表示がない: %s", out)
	}
}
