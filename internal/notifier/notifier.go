// Package notifier はボード上に表示する一時的なバナー通知を提供する。
package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL はバナーを表示し続ける時間。
const DefaultTTL = 3000 * time.Millisecond

// Banner は1件の通知バナー。
type Banner struct {
	ID        string
	Message   string
	IsError   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TTL はバナーの表示時間を返す。
func (b Banner) TTL() time.Duration {
	return b.ExpiresAt.Sub(b.CreatedAt)
}

// Recorder は通知の発生を記録するインターフェース。
type Recorder interface {
	RecordNotification(isError bool)
}

// Notifier はバナーの追加と期限切れによる削除を管理する。
// 通知はまとめられず、キューにも入らない。重なったバナーはそのまま積み上がる。
type Notifier struct {
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder

	mu      sync.Mutex
	banners []Banner
}

// New はNotifierを生成する。ttlが0以下の場合はDefaultTTLを使う。
func New(ttl time.Duration, recorder Recorder) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl:      ttl,
		now:      time.Now,
		recorder: recorder,
	}
}

// Notify はバナーを追加し、TTL経過後に無条件で削除する。
func (n *Notifier) Notify(message string, isError bool) {
	created := n.now()
	b := Banner{
		ID:        uuid.NewString(),
		Message:   message,
		IsError:   isError,
		CreatedAt: created,
		ExpiresAt: created.Add(n.ttl),
	}

	n.mu.Lock()
	n.banners = append(n.banners, b)
	n.mu.Unlock()

	if n.recorder != nil {
		n.recorder.RecordNotification(isError)
	}

	time.AfterFunc(n.ttl, func() { n.remove(b.ID) })
}

// Active は表示中のバナーを古い順に返す。
func (n *Notifier) Active() []Banner {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Banner, len(n.banners))
	copy(out, n.banners)
	return out
}

func (n *Notifier) remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, b := range n.banners {
		if b.ID == id {
			n.banners = append(n.banners[:i], n.banners[i+1:]...)
			return
		}
	}
}
