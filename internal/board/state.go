package board

import (
	"time"

	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/notifier"
)

// RosterView は参加者一覧セクションの表示内容。
type RosterView struct {
	Participants []model.Participant
}

// Snapshot は全利用者で共有するボード文書の状態。
// セクションごとに最後に成功したロード結果を保持し、失敗したセクションは前回の値を残す。
// 各フィールドはロードのたびに丸ごと差し替え、内部を書き換えない。
type Snapshot struct {
	Roster       *RosterView
	Progress     *ProgressView
	Daily        *DailyView
	Full         *FullView
	DailyChart   *Chart
	WeekdayChart *Chart
	HourlyChart  *Chart
	// Version は適用されたセクション更新の累計数。
	Version   uint64
	UpdatedAt time.Time
}

// State は1リクエスト分のページ描画に必要な状態。
type State struct {
	Snapshot
	Auth    AuthView
	Banners []notifier.Banner
	// Today は当日の出席セクションが対象とした日付（YYYY-MM-DD）。
	Today string
}
