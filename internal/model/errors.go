package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, board, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Section はボード上の描画領域を識別する。
type Section string

// ボードのセクション。
const (
	SectionAuth     Section = "auth"
	SectionRoster   Section = "roster"
	SectionProgress Section = "progress"
	SectionDaily    Section = "daily"
	SectionFull     Section = "full"
	SectionHourly   Section = "hourly"
)

// 定義済みエラーコード
const (
	ErrCodeRosterLoadFailed   = "ROSTER_LOAD_FAILED"
	ErrCodeProgressLoadFailed = "PROGRESS_LOAD_FAILED"
	ErrCodeDailyLoadFailed    = "DAILY_LOAD_FAILED"
	ErrCodeFullLoadFailed     = "FULL_LOAD_FAILED"
	ErrCodeHourlyLoadFailed   = "HOURLY_LOAD_FAILED"
	ErrCodeRefreshForbidden   = "REFRESH_FORBIDDEN"
	ErrCodeParticipantUnknown = "PARTICIPANT_UNKNOWN"
)

// sectionMessages はセクションごとの利用者向けエラーメッセージ。
var sectionMessages = map[Section]struct {
	code    string
	message string
}{
	SectionRoster:   {ErrCodeRosterLoadFailed, "정원사 목록을 불러오는 중 오류가 발생했습니다."},
	SectionProgress: {ErrCodeProgressLoadFailed, "진행 상황을 불러오는 중 오류가 발생했습니다."},
	SectionDaily:    {ErrCodeDailyLoadFailed, "오늘의 출석 현황을 불러오는 중 오류가 발생했습니다."},
	SectionFull:     {ErrCodeFullLoadFailed, "출석 현황을 불러오는 중 오류가 발생했습니다."},
	SectionHourly:   {ErrCodeHourlyLoadFailed, "시간대별 커밋 데이터를 불러오는 중 오류가 발생했습니다."},
}

// LoadError はセクションのロード失敗を表す。
// 原因エラーをラップし、バナーに表示するメッセージを持つ。
type LoadError struct {
	Section Section
	Code    string
	Message string
	Err     error
}

// NewLoadError はセクションに対応するコードとメッセージでLoadErrorを生成する。
func NewLoadError(section Section, err error) *LoadError {
	m, ok := sectionMessages[section]
	if !ok {
		m.code = "LOAD_FAILED"
		m.message = "데이터를 불러오는 중 오류가 발생했습니다."
	}
	return &LoadError{
		Section: section,
		Code:    m.code,
		Message: m.message,
		Err:     err,
	}
}

// Error はerrorインターフェースを実装する。
func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Section, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewRefreshForbiddenError は手動更新の権限がない場合のエラーを生成する。
func NewRefreshForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeRefreshForbidden,
		Message:  "새로고침 권한이 없습니다.",
		Category: "auth",
		Action:   "관리자 계정으로 로그인해 주세요.",
	}
}

// NewParticipantUnknownError は参加者が見つからない場合のエラーを生成する。
func NewParticipantUnknownError(participantID string) *APIError {
	return &APIError{
		Code:     ErrCodeParticipantUnknown,
		Message:  fmt.Sprintf("정원사를 찾을 수 없습니다: %s", participantID),
		Category: "board",
		Action:   "정원사 목록에서 다시 선택해 주세요.",
	}
}
