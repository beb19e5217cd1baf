package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// zonelessLayouts はタイムゾーン表記のないISO-8601形式。
// バックエンドは naive datetime をそのままシリアライズすることがある。
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// TimestampLocation はタイムゾーン表記のない時刻を解釈するロケーション。
// 起動時にボードのタイムゾーンで置き換える。
var TimestampLocation = time.Local

// Timestamp はバックエンドの時刻文字列を表す。
// RFC 3339 とタイムゾーンなしのISO-8601の両方を受け付ける。
type Timestamp struct {
	time.Time
}

// UnmarshalJSON はJSON文字列から時刻をパースする。
// null は時刻ゼロ値として扱う。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON は時刻をRFC 3339形式で出力する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ParseTimestamp はバックエンドの時刻文字列をパースする。
func ParseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	for _, layout := range zonelessLayouts {
		if ts, err := time.ParseInLocation(layout, raw, TimestampLocation); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", raw)
}
