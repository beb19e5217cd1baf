package board

import (
	"time"

	"github.com/hitoshi/gardenboard/internal/model"
)

// 出席状態の絵文字。
const (
	EmojiAttended = "🌱"
	EmojiAbsent   = "💤"
)

// DailyEntry は当日の出席一覧の1行。
type DailyEntry struct {
	Participant model.Participant
	Attended    bool
}

// Emoji は出席状態に対応する絵文字を返す。
func (e DailyEntry) Emoji() string {
	if e.Attended {
		return EmojiAttended
	}
	return EmojiAbsent
}

// DailyView は当日の出席セクションの表示内容。
type DailyView struct {
	Date    string
	Entries []DailyEntry
	// LastUpdated は記録のupdatedAtの最大値。どの記録にもない場合はnil。
	LastUpdated *time.Time
}

// BuildDailyView は出席記録と参加者一覧を突き合わせて当日の出席セクションを構築する。
// 記録のない参加者は欠席として扱い、一覧から省かない。並び順は参加者一覧に従う。
func BuildDailyView(date string, records []model.DailyAttendanceRecord, participants []model.Participant) DailyView {
	attended := make(map[string]bool, len(records))
	var last *time.Time
	for _, r := range records {
		attended[r.ParticipantID] = r.Attended
		if r.UpdatedAt == nil || r.UpdatedAt.IsZero() {
			continue
		}
		if last == nil || r.UpdatedAt.After(*last) {
			ts := r.UpdatedAt.Time
			last = &ts
		}
	}

	entries := make([]DailyEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, DailyEntry{
			Participant: p,
			Attended:    attended[p.ID],
		})
	}

	return DailyView{
		Date:        date,
		Entries:     entries,
		LastUpdated: last,
	}
}

// AttendedCount は当日の出席者数を返す。
func (v DailyView) AttendedCount() int {
	n := 0
	for _, e := range v.Entries {
		if e.Attended {
			n++
		}
	}
	return n
}
