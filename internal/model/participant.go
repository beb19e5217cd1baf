// Package model はバックエンドAPIから受け取るドメインモデルを定義する。
// いずれもレスポンス形状の一時的な値であり、取得したロード処理だけが所有する。
package model

import "net/url"

// Participant は出席ボードに登録された参加者（정원사）を表す。
// 参照元は常にバックエンドであり、ボード側で変更することはない。
type Participant struct {
	ID        string `json:"github_id"`
	AvatarURL string `json:"github_profile_url"`
}

// DisplayName は画面に表示する参加者名を返す。
// バックエンドは表示名を持たないため、外部IDをそのまま使う。
func (p Participant) DisplayName() string {
	return p.ID
}

// ProfilePath は参加者プロフィールページのパスを返す。
func (p Participant) ProfilePath() string {
	return ProfilePath(p.ID)
}

// ProfilePath は参加者IDからプロフィールページのパスを組み立てる。
func ProfilePath(participantID string) string {
	return "/users/" + url.PathEscape(participantID)
}

// AuthSession はログイン中のセッション情報を表す。
// 未ログインの場合はnilで表現し、エラーとしては扱わない。
type AuthSession struct {
	ParticipantID string
	AvatarURL     string
	// IsPrivileged は認可述語によって導出される。バックエンドの値ではない。
	IsPrivileged bool
}

// SessionPayload は /api/auth/me のレスポンスボディ。
type SessionPayload struct {
	ID        int    `json:"id"`
	GithubID  string `json:"github_id"`
	AvatarURL string `json:"github_profile_url"`
}

// HourlyCommit は時間帯別コミット数の1バケットを表す。
type HourlyCommit struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}
