package board

import (
	"strings"
	"sync/atomic"

	"github.com/hitoshi/gardenboard/internal/model"
)

// Authorizer は参加者IDに手動更新の権限があるかを判定する。
type Authorizer interface {
	IsPrivileged(participantID string) bool
}

// AuthorizerFunc は関数をAuthorizerとして扱うためのアダプタ。
type AuthorizerFunc func(participantID string) bool

// IsPrivileged はAuthorizerを実装する。
func (f AuthorizerFunc) IsPrivileged(participantID string) bool {
	return f(participantID)
}

// PrivilegedSet は設定で与えられた権限付き参加者IDの集合。
// 設定ファイルの再読み込みで差し替えられるため、内部はatomicに保持する。
type PrivilegedSet struct {
	ids atomic.Pointer[map[string]struct{}]
}

// NewPrivilegedSet は権限付き参加者IDの集合を生成する。
func NewPrivilegedSet(ids []string) *PrivilegedSet {
	s := &PrivilegedSet{}
	s.Replace(ids)
	return s
}

// Replace は集合を丸ごと差し替える。空白のみのIDは無視する。
func (s *PrivilegedSet) Replace(ids []string) {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		m[id] = struct{}{}
	}
	s.ids.Store(&m)
}

// IsPrivileged はAuthorizerを実装する。
func (s *PrivilegedSet) IsPrivileged(participantID string) bool {
	m := s.ids.Load()
	if m == nil {
		return false
	}
	_, ok := (*m)[participantID]
	return ok
}

// AuthView はログイン状態セクションの表示内容。
type AuthView struct {
	Session *model.AuthSession
}

// SignedIn はプロフィール表示を出すかどうか。
func (v AuthView) SignedIn() bool { return v.Session != nil }

// ShowLogin はログインボタンを出すかどうか。
func (v AuthView) ShowLogin() bool { return v.Session == nil }

// ShowRefresh は手動更新ボタンを出すかどうか。
func (v AuthView) ShowRefresh() bool { return v.Session != nil && v.Session.IsPrivileged }

// BuildAuthView はセッション取得結果からログイン状態セクションを構築する。
// payloadがnil（未ログインまたは取得失敗）の場合はログアウト状態になる。
func BuildAuthView(payload *model.SessionPayload, authz Authorizer) AuthView {
	if payload == nil || payload.GithubID == "" {
		return AuthView{}
	}
	privileged := authz != nil && authz.IsPrivileged(payload.GithubID)
	return AuthView{Session: &model.AuthSession{
		ParticipantID: payload.GithubID,
		AvatarURL:     payload.AvatarURL,
		IsPrivileged:  privileged,
	}}
}
