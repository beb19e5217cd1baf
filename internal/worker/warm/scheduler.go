// Package warm はボードのバックグラウンド先読みを提供する。
// 共有スナップショットの定期読み込みと、参加者ごとの活動フィードの先読みを行う。
package warm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
)

// BoardLoader は共有スナップショットを読み込むインターフェース。
// board.Controller が実装する。
type BoardLoader interface {
	Load(ctx context.Context, req board.Request) board.State
}

// ActivityPrefetcher は参加者の活動フィードを取得してキャッシュする。
// activity.Fetcher が実装する。
type ActivityPrefetcher interface {
	Prefetch(ctx context.Context, participantID string) error
}

// Scheduler は先読みのスケジューリングと並列制御を行う。
// ティッカーごとにボードを読み込み、読み込んだ参加者一覧をもとに
// semaphoreパターンで最大並列数を制御しながら活動フィードを先読みする。
type Scheduler struct {
	loader         BoardLoader
	activity       ActivityPrefetcher
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// activityがnilの場合は活動フィードを先読みしない。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	loader BoardLoader,
	activity ActivityPrefetcher,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		loader:         loader,
		activity:       activity,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("先読みスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("先読みスケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce はボードを1回読み込み、参加者の活動フィードを並列に先読みする。
// 先読みの失敗はログに記録するだけで、サイクルは継続する。
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()

	state := s.loader.Load(ctx, board.Request{})
	if ctx.Err() != nil {
		return
	}

	participants := rosterOf(state)
	if s.activity == nil || len(participants) == 0 {
		s.logger.Info("先読みサイクルが完了しました",
			slog.Uint64("version", state.Version),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
		return
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, p := range participants {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(participantID string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.activity.Prefetch(ctx, participantID); err != nil {
				s.logger.Warn("活動フィードの先読みに失敗しました",
					slog.String("participant_id", participantID),
					slog.String("error", err.Error()),
				)
			}
		}(p.ID)
	}

	wg.Wait()

	s.logger.Info("先読みサイクルが完了しました",
		slog.Uint64("version", state.Version),
		slog.Int("participant_count", len(participants)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}

func rosterOf(state board.State) []model.Participant {
	if state.Roster == nil {
		return nil
	}
	return state.Roster.Participants
}
