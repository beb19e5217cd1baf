package model

import (
	"errors"
	"fmt"
)

// ErrMisalignedStatistics は日付系列と日別出席率・出席行列の長さが一致しない場合のエラー。
// バックエンドの契約違反であり、ボード側では補正しない。
var ErrMisalignedStatistics = errors.New("attendance statistics sequences are not index-aligned")

// DailyAttendanceRecord は特定日付の参加者1人分の出席記録。
type DailyAttendanceRecord struct {
	ParticipantID string     `json:"github_id"`
	Date          string     `json:"attendance_date"`
	Attended      bool       `json:"is_attended"`
	UpdatedAt     *Timestamp `json:"updated_at,omitempty"`
}

// DailyRate は1日分の出席率（その日に出席した参加者の割合）。
type DailyRate struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// UserStat は参加者ごとの集計行。
// Attendance は AttendanceStatistics.Dates と同じ順序・同じ長さで並ぶ。
type UserStat struct {
	Rank           int     `json:"rank"`
	ID             string  `json:"github_id"`
	AttendanceRate float64 `json:"attendance_rate"`
	AttendedCount  int     `json:"attended_count"`
	Attendance     []bool  `json:"attendance"`
}

// AttendanceStatistics は /api/attendance/stats の集計スナップショット。
type AttendanceStatistics struct {
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	TotalDays     int         `json:"total_days"`
	DaysCompleted int         `json:"days_completed"`
	OverallRate   float64     `json:"overall_attendance_rate"`
	TotalPresent  int         `json:"total_present"`
	TotalAbsent   int         `json:"total_absent"`
	Dates         []string    `json:"dates"`
	DailyRates    []DailyRate `json:"daily_rates"`
	Users         []UserStat  `json:"users"`
}

// Validate は日付系列・日別出席率・各参加者の出席行列が同じ長さであることを検証する。
func (s *AttendanceStatistics) Validate() error {
	if len(s.DailyRates) != len(s.Dates) {
		return fmt.Errorf("%w: %d dates, %d daily rates", ErrMisalignedStatistics, len(s.Dates), len(s.DailyRates))
	}
	for _, u := range s.Users {
		if len(u.Attendance) != len(s.Dates) {
			return fmt.Errorf("%w: user %s has %d attendance marks for %d dates",
				ErrMisalignedStatistics, u.ID, len(u.Attendance), len(s.Dates))
		}
	}
	return nil
}

// FindUser は参加者IDに一致する集計行を返す。見つからない場合はnilを返す。
func (s *AttendanceStatistics) FindUser(participantID string) *UserStat {
	for i := range s.Users {
		if s.Users[i].ID == participantID {
			return &s.Users[i]
		}
	}
	return nil
}
