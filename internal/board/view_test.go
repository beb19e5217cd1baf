package board

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/gardenboard/internal/model"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name          string
		daysCompleted int
		totalDays     int
		want          int
	}{
		{"開始直後", 0, 100, 0},
		{"10日目", 10, 100, 10},
		{"端数の四捨五入（切り上げ）", 2, 3, 67},
		{"端数の四捨五入（切り捨て）", 1, 3, 33},
		{"ちょうど半分", 1, 2, 50},
		{"完了", 100, 100, 100},
		{"総日数ゼロは0", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.daysCompleted, tt.totalDays); got != tt.want {
				t.Errorf("Percent(%d, %d) = %d, want %d", tt.daysCompleted, tt.totalDays, got, tt.want)
			}
		})
	}
}

func TestPercent_MonotonicInDaysCompleted(t *testing.T) {
	for _, total := range []int{1, 3, 7, 100, 365} {
		prev := -1
		for done := 0; done <= total+5; done++ {
			p := Percent(done, total)
			if p < prev {
				t.Fatalf("totalDays=%d: Percent(%d)=%d が Percent(%d)=%d より小さい", total, done, p, done-1, prev)
			}
			prev = p
		}
	}
}

func TestBuildProgressView_LabelAndWidth(t *testing.T) {
	v := BuildProgressView(100, 10)
	if v.Label != "100일 중 10일 진행 (10%)" {
		t.Errorf("Label = %q", v.Label)
	}
	if v.BarWidth != 10 {
		t.Errorf("BarWidth = %d, want 10", v.BarWidth)
	}

	over := BuildProgressView(10, 12)
	if over.Percent != 120 || over.BarWidth != 100 {
		t.Errorf("超過時 Percent/BarWidth = %d/%d, want 120/100", over.Percent, over.BarWidth)
	}
}

func TestDateKey_UsesLocalCalendarFields(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// ローカル 2024-03-01 23:30 は UTC では 2024-03-01 14:30
	local := time.Date(2024, 3, 1, 23, 30, 0, 0, seoul)
	if got := DateKey(local, seoul); got != "2024-03-01" {
		t.Errorf("DateKey = %s, want 2024-03-01", got)
	}

	// UTC-5 の 23:30 は UTC では翌日。UTCで切り出すと 2024-03-02 になってしまう
	ny := time.FixedZone("EST", -5*60*60)
	late := time.Date(2024, 3, 1, 23, 30, 0, 0, ny)
	if late.UTC().Format("2006-01-02") != "2024-03-02" {
		t.Fatal("前提: UTCでは翌日になる")
	}
	if got := DateKey(late, ny); got != "2024-03-01" {
		t.Errorf("DateKey = %s, want 2024-03-01", got)
	}

	// 同じ瞬間でもボードのロケーションで日付が決まる
	if got := DateKey(late, seoul); got != "2024-03-02" {
		t.Errorf("DateKey(KST) = %s, want 2024-03-02", got)
	}
}

func TestDateLabels(t *testing.T) {
	if got := FullDateLabel("2024-01-07"); got != "01/07 (일)" {
		t.Errorf("FullDateLabel = %q", got)
	}
	if got := ShortDateLabel("2024-01-08"); got != "01/08" {
		t.Errorf("ShortDateLabel = %q", got)
	}
	if got := FullDateLabel("bogus"); got != "bogus" {
		t.Errorf("パースできない日付はそのまま返すべき: %q", got)
	}
}

func ts(t *testing.T, raw string) *model.Timestamp {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		t.Fatalf("時刻のパースに失敗: %v", err)
	}
	return &model.Timestamp{Time: parsed}
}

func TestBuildDailyView_AbsentParticipantsAreNotOmitted(t *testing.T) {
	participants := []model.Participant{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	records := []model.DailyAttendanceRecord{
		{ParticipantID: "b", Attended: true},
		{ParticipantID: "c", Attended: false},
	}

	v := BuildDailyView("2024-05-01", records, participants)

	if len(v.Entries) != 3 {
		t.Fatalf("全参加者が表示されるべき: got %d", len(v.Entries))
	}
	want := []string{EmojiAbsent, EmojiAttended, EmojiAbsent}
	for i, e := range v.Entries {
		if e.Emoji() != want[i] {
			t.Errorf("%s: Emoji = %s, want %s", e.Participant.ID, e.Emoji(), want[i])
		}
	}
	if v.AttendedCount() != 1 {
		t.Errorf("AttendedCount = %d, want 1", v.AttendedCount())
	}
}

func TestBuildDailyView_LastUpdatedPicksLatest(t *testing.T) {
	records := []model.DailyAttendanceRecord{
		{ParticipantID: "a", Attended: true, UpdatedAt: ts(t, "2024-05-01T09:00:00")},
		{ParticipantID: "b", Attended: true, UpdatedAt: ts(t, "2024-05-01T10:30:00")},
		{ParticipantID: "c", Attended: false},
	}

	v := BuildDailyView("2024-05-01", records, []model.Participant{{ID: "a"}})

	if v.LastUpdated == nil {
		t.Fatal("LastUpdated が設定されるべき")
	}
	if v.LastUpdated.Hour() != 10 || v.LastUpdated.Minute() != 30 {
		t.Errorf("LastUpdated = %v, want 10:30", v.LastUpdated)
	}
}

func TestBuildDailyView_NoTimestampsNoLastUpdated(t *testing.T) {
	records := []model.DailyAttendanceRecord{{ParticipantID: "a", Attended: true}}

	v := BuildDailyView("2024-05-01", records, []model.Participant{{ID: "a"}})
	if v.LastUpdated != nil {
		t.Errorf("LastUpdated は nil であるべき: %v", v.LastUpdated)
	}
}

func scenarioStats() *model.AttendanceStatistics {
	return &model.AttendanceStatistics{
		TotalDays:     100,
		DaysCompleted: 2,
		OverallRate:   75,
		TotalPresent:  2,
		TotalAbsent:   0,
		Dates:         []string{"2024-01-01", "2024-01-02"},
		DailyRates:    []model.DailyRate{{Rate: 50}, {Rate: 100}},
		Users: []model.UserStat{
			{Rank: 1, ID: "a", AttendanceRate: 75, Attendance: []bool{true, true}},
		},
	}
}

func TestBuildFullView_Scenario(t *testing.T) {
	v, err := BuildFullView(scenarioStats(), nil)
	if err != nil {
		t.Fatalf("BuildFullView がエラーを返した: %v", err)
	}

	if len(v.Headers) != 2 {
		t.Fatalf("日付見出しは2列であるべき: got %d", len(v.Headers))
	}
	if v.Headers[0].Full != "01/01 (월)" || v.Headers[0].Short != "01/01" {
		t.Errorf("見出し = %+v", v.Headers[0])
	}
	if len(v.Rows) != 1 {
		t.Fatalf("行数 = %d, want 1", len(v.Rows))
	}
	row := v.Rows[0]
	if row.MarkFor(0)+row.MarkFor(1) != "🌱🌱" {
		t.Errorf("出席マーク = %s%s, want 🌱🌱", row.MarkFor(0), row.MarkFor(1))
	}
	if row.AvatarURL != "https://avatars.githubusercontent.com/a" {
		t.Errorf("AvatarURL = %s", row.AvatarURL)
	}
	if len(v.Rates) != 2 || v.Rates[0] != 50 || v.Rates[1] != 100 {
		t.Errorf("日別出席率 = %v, want [50 100]", v.Rates)
	}
}

func TestBuildFullView_KeepsBackendRankOrder(t *testing.T) {
	stats := scenarioStats()
	stats.Users = []model.UserStat{
		{Rank: 2, ID: "second", Attendance: []bool{false, true}},
		{Rank: 1, ID: "first", Attendance: []bool{true, true}},
	}

	v, err := BuildFullView(stats, func(id string) string { return "/avatar/" + id })
	if err != nil {
		t.Fatalf("BuildFullView がエラーを返した: %v", err)
	}
	if v.Rows[0].ID != "second" || v.Rows[1].ID != "first" {
		t.Errorf("行はバックエンドの順序のままであるべき: %+v", v.Rows)
	}
	if v.Rows[0].MarkFor(0) != MarkAbsent {
		t.Errorf("欠席マーク = %s, want ❌", v.Rows[0].MarkFor(0))
	}
	if v.Rows[1].AvatarURL != "/avatar/first" {
		t.Errorf("AvatarURL = %s", v.Rows[1].AvatarURL)
	}
}

func TestBuildFullView_MisalignedIsError(t *testing.T) {
	stats := scenarioStats()
	stats.DailyRates = stats.DailyRates[:1]

	if _, err := BuildFullView(stats, nil); !errors.Is(err, model.ErrMisalignedStatistics) {
		t.Fatalf("ErrMisalignedStatistics であるべき: got %v", err)
	}
}

func TestWeekdayAverages_Sundays(t *testing.T) {
	avg := WeekdayAverages([]string{"2024-01-07", "2024-01-14"}, []float64{80, 60})

	if avg[time.Sunday] != 70 {
		t.Errorf("日曜の平均 = %d, want 70", avg[time.Sunday])
	}
	for wd := time.Monday; wd <= time.Saturday; wd++ {
		if avg[wd] != 0 {
			t.Errorf("%v の平均 = %d, want 0", wd, avg[wd])
		}
	}
}

func TestWeekdayAverages_Rounds(t *testing.T) {
	// 月曜 3日分: (50 + 50 + 51) / 3 = 50.33 -> 50、火曜 2日分: (50 + 51) / 2 = 50.5 -> 51
	avg := WeekdayAverages(
		[]string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-02", "2024-01-09"},
		[]float64{50, 50, 51, 50, 51},
	)
	if avg[time.Monday] != 50 {
		t.Errorf("月曜 = %d, want 50", avg[time.Monday])
	}
	if avg[time.Tuesday] != 51 {
		t.Errorf("火曜 = %d, want 51", avg[time.Tuesday])
	}
}

func TestWeekdayRateChart(t *testing.T) {
	c := WeekdayRateChart(&model.AttendanceStatistics{
		Dates:      []string{"2024-01-07", "2024-01-14"},
		DailyRates: []model.DailyRate{{Rate: 80}, {Rate: 60}},
	})
	if c.ID != ChartWeekdayRate || c.Kind != ChartBar {
		t.Errorf("チャート種別 = %s/%s", c.ID, c.Kind)
	}
	if len(c.Values) != 7 || c.Values[0] != 70 || c.Labels[0] != "일" {
		t.Errorf("Values = %v, Labels = %v", c.Values, c.Labels)
	}
	if c.Max() != 100 {
		t.Errorf("Max = %v, want 100", c.Max())
	}
}

func TestDailyRateChart(t *testing.T) {
	c := DailyRateChart(scenarioStats())
	if c.Kind != ChartLine {
		t.Errorf("Kind = %s, want line", c.Kind)
	}
	if len(c.Labels) != 2 || c.Labels[1] != "01/02" || c.Values[1] != 100 {
		t.Errorf("Labels = %v, Values = %v", c.Labels, c.Values)
	}
}

func TestHourlyBuckets(t *testing.T) {
	counts, ignored := HourlyBuckets([]model.HourlyCommit{
		{Hour: 0, Count: 2},
		{Hour: 13, Count: 7},
		{Hour: 23, Count: 1},
		{Hour: 24, Count: 9},
		{Hour: -1, Count: 9},
	})

	if ignored != 2 {
		t.Errorf("ignored = %d, want 2", ignored)
	}
	if counts[0] != 2 || counts[13] != 7 || counts[23] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if counts[5] != 0 {
		t.Errorf("報告のない時間帯は0であるべき: %d", counts[5])
	}

	c := HourlyCommitChart(counts)
	if len(c.Values) != HoursPerDay || c.Max() != 7 {
		t.Errorf("チャート = %d values, max %v", len(c.Values), c.Max())
	}
}

func TestBuildAuthView_Gating(t *testing.T) {
	authz := NewPrivilegedSet([]string{"junho85"})

	privileged := BuildAuthView(&model.SessionPayload{GithubID: "junho85"}, authz)
	if !privileged.SignedIn() || !privileged.ShowRefresh() || privileged.ShowLogin() {
		t.Errorf("junho85 は更新ボタンを表示するべき: %+v", privileged)
	}

	other := BuildAuthView(&model.SessionPayload{GithubID: "someoneElse"}, authz)
	if !other.SignedIn() || other.ShowRefresh() {
		t.Errorf("someoneElse は更新ボタンを隠すべき: %+v", other)
	}

	none := BuildAuthView(nil, authz)
	if none.SignedIn() || none.ShowRefresh() || !none.ShowLogin() {
		t.Errorf("未ログインはログインボタンのみ表示するべき: %+v", none)
	}
}

func TestPrivilegedSet_Replace(t *testing.T) {
	s := NewPrivilegedSet([]string{" junho85 ", ""})
	if !s.IsPrivileged("junho85") {
		t.Error("前後の空白は無視されるべき")
	}
	if s.IsPrivileged("") {
		t.Error("空IDは権限を持たない")
	}

	s.Replace([]string{"other"})
	if s.IsPrivileged("junho85") || !s.IsPrivileged("other") {
		t.Error("Replace 後は新しい集合で判定するべき")
	}
}

func TestAuthorizerFunc(t *testing.T) {
	f := AuthorizerFunc(func(id string) bool { return id == "x" })
	if !f.IsPrivileged("x") || f.IsPrivileged("y") {
		t.Error("AuthorizerFunc が関数の結果を返していない")
	}
}
