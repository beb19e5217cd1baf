package board

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/notifier"
)

// Backend はコントローラが必要とするバックエンドAPIのインターフェース。
// gardenapi.Client が実装する。
type Backend interface {
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	CurrentSession(ctx context.Context, cookies []*http.Cookie) (*model.SessionPayload, error)
	Statistics(ctx context.Context) (*model.AttendanceStatistics, error)
	DailyAttendance(ctx context.Context, date string) ([]model.DailyAttendanceRecord, error)
	HourlyCommits(ctx context.Context) ([]model.HourlyCommit, error)
	TriggerCheck(ctx context.Context, cookies []*http.Cookie) error
}

// Notifier はバナー通知のインターフェース。
type Notifier interface {
	Notify(message string, isError bool)
	Active() []notifier.Banner
}

// Recorder はコントローラのイベントを記録するインターフェース。
type Recorder interface {
	RecordSupersededRefresh()
	RecordLoadFailure(section string)
}

type nopRecorder struct{}

func (nopRecorder) RecordSupersededRefresh()  {}
func (nopRecorder) RecordLoadFailure(string) {}

// ControllerConfig はコントローラの設定。
type ControllerConfig struct {
	// Location は「今日」を決める暦のタイムゾーン。
	Location *time.Location
	// Authorizer は手動更新ボタンの表示と実行を許可する参加者を判定する。
	Authorizer Authorizer
	// Avatar は出席表のアバターURLを求める。nilの場合はGitHubのアバター。
	Avatar AvatarResolver
	// TriggerCheck が true の場合、手動更新でバックエンドの出席チェックを先に依頼する。
	TriggerCheck bool
	// Timeout はロード1回あたりの上限時間。0の場合は上限なし。
	Timeout time.Duration
}

// Request はロード1回分の入力。
type Request struct {
	// Cookies はセッション確認のためにバックエンドへ転送する。
	Cookies []*http.Cookie
	// Now は「今日」の基準時刻。ゼロ値の場合は現在時刻。
	Now time.Time
}

// Controller はページのセクションを並行して読み込み、共有スナップショットに反映する。
type Controller struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger
	recorder Recorder
	cfg      ControllerConfig
	now      func() time.Time

	mu       sync.Mutex
	snapshot Snapshot
	seq      uint64
	applied  map[model.Section]uint64

	refreshMu     sync.Mutex
	refreshGen    uint64
	cancelRefresh context.CancelFunc
}

// NewController はControllerを生成する。
func NewController(backend Backend, n Notifier, logger *slog.Logger, recorder Recorder, cfg ControllerConfig) *Controller {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Controller{
		backend:  backend,
		notifier: n,
		logger:   logger,
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
		applied:  make(map[model.Section]uint64),
	}
}

// Load はページ表示時の読み込みを行う。
// 参加者一覧・ログイン状態・進行率・当日の出席・出席表・時間帯別コミット数を並行して取得し、
// 成功したセクションだけをスナップショットに反映する。
func (c *Controller) Load(ctx context.Context, req Request) State {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	now := req.Now
	if now.IsZero() {
		now = c.now()
	}
	today := DateKey(now, c.cfg.Location)

	var (
		wg   sync.WaitGroup
		auth AuthView
	)
	wg.Add(6)
	go func() { defer wg.Done(); auth = c.refreshAuthStatus(ctx, req.Cookies) }()
	go func() { defer wg.Done(); c.loadRoster(ctx, seq) }()
	go func() { defer wg.Done(); c.loadProgress(ctx, seq) }()
	go func() { defer wg.Done(); c.loadDailyAttendance(ctx, seq, today) }()
	go func() { defer wg.Done(); c.loadFullAttendance(ctx, seq) }()
	go func() { defer wg.Done(); c.loadHourlyCommits(ctx, seq) }()
	wg.Wait()

	return State{
		Snapshot: c.Snapshot(),
		Auth:     auth,
		Banners:  c.notifier.Active(),
		Today:    today,
	}
}

// Refresh は手動更新を行う。
// 実行中の以前の手動更新はキャンセルされ、その結果は反映されない。
func (c *Controller) Refresh(ctx context.Context, req Request) State {
	ctx, cancel := context.WithCancel(ctx)

	c.refreshMu.Lock()
	if c.cancelRefresh != nil {
		c.cancelRefresh()
		c.recorder.RecordSupersededRefresh()
		c.logger.Info("実行中の手動更新を中断しました")
	}
	c.refreshGen++
	gen := c.refreshGen
	c.cancelRefresh = cancel
	c.refreshMu.Unlock()

	defer func() {
		c.refreshMu.Lock()
		if c.refreshGen == gen {
			c.cancelRefresh = nil
		}
		c.refreshMu.Unlock()
		cancel()
	}()

	if c.cfg.TriggerCheck {
		if err := c.backend.TriggerCheck(ctx, req.Cookies); err != nil && !isCanceled(ctx, err) {
			// チェック依頼に失敗しても読み込みは続行する
			c.logger.Warn("出席チェックの依頼に失敗しました", slog.String("error", err.Error()))
		}
	}

	return c.Load(ctx, req)
}

// Snapshot は現在の共有スナップショットを返す。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// IsPrivileged は参加者が手動更新を実行できるかを返す。
func (c *Controller) IsPrivileged(participantID string) bool {
	return c.cfg.Authorizer != nil && c.cfg.Authorizer.IsPrivileged(participantID)
}

// refreshAuthStatus は現在のセッションを取得する。
// 失敗は未ログインとして扱い、バナーは出さない。
func (c *Controller) refreshAuthStatus(ctx context.Context, cookies []*http.Cookie) AuthView {
	payload, err := c.backend.CurrentSession(ctx, cookies)
	if err != nil {
		c.logger.Debug("未ログインとして表示します", slog.String("error", err.Error()))
		return BuildAuthView(nil, c.cfg.Authorizer)
	}
	return BuildAuthView(payload, c.cfg.Authorizer)
}

func (c *Controller) loadRoster(ctx context.Context, seq uint64) {
	participants, err := c.backend.ListParticipants(ctx)
	if err != nil {
		c.fail(ctx, model.SectionRoster, err)
		return
	}
	view := &RosterView{Participants: participants}
	c.apply(ctx, seq, model.SectionRoster, func(s *Snapshot) { s.Roster = view })
}

func (c *Controller) loadProgress(ctx context.Context, seq uint64) {
	stats, err := c.backend.Statistics(ctx)
	if err != nil {
		c.fail(ctx, model.SectionProgress, err)
		return
	}
	view := BuildProgressView(stats.TotalDays, stats.DaysCompleted)
	c.apply(ctx, seq, model.SectionProgress, func(s *Snapshot) { s.Progress = &view })
}

// loadDailyAttendance は当日の出席記録、続いて参加者一覧を順に取得する。
func (c *Controller) loadDailyAttendance(ctx context.Context, seq uint64, date string) {
	records, err := c.backend.DailyAttendance(ctx, date)
	if err != nil {
		c.fail(ctx, model.SectionDaily, err)
		return
	}
	participants, err := c.backend.ListParticipants(ctx)
	if err != nil {
		c.fail(ctx, model.SectionDaily, err)
		return
	}
	view := BuildDailyView(date, records, participants)
	c.apply(ctx, seq, model.SectionDaily, func(s *Snapshot) { s.Daily = &view })
}

func (c *Controller) loadFullAttendance(ctx context.Context, seq uint64) {
	stats, err := c.backend.Statistics(ctx)
	if err != nil {
		c.fail(ctx, model.SectionFull, err)
		return
	}
	view, err := BuildFullView(stats, c.cfg.Avatar)
	if err != nil {
		c.fail(ctx, model.SectionFull, err)
		return
	}
	daily := DailyRateChart(stats)
	weekday := WeekdayRateChart(stats)
	c.apply(ctx, seq, model.SectionFull, func(s *Snapshot) {
		s.Full = &view
		s.DailyChart = &daily
		s.WeekdayChart = &weekday
	})
}

func (c *Controller) loadHourlyCommits(ctx context.Context, seq uint64) {
	commits, err := c.backend.HourlyCommits(ctx)
	if err != nil {
		c.fail(ctx, model.SectionHourly, err)
		return
	}
	counts, ignored := HourlyBuckets(commits)
	if ignored > 0 {
		c.logger.Warn("範囲外の時間帯を無視しました", slog.Int("ignored", ignored))
	}
	chart := HourlyCommitChart(counts)
	c.apply(ctx, seq, model.SectionHourly, func(s *Snapshot) { s.HourlyChart = &chart })
}

// apply はセクションの更新をスナップショットに反映する。
// より新しいロードが既に反映したセクションには、古いロードの結果を書き込まない。
// キャンセル済みのロード（新しい手動更新に中断されたものなど）は、応答が届いていても書き込まない。
func (c *Controller) apply(ctx context.Context, seq uint64, section model.Section, patch func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		c.logger.Debug("キャンセルされたロード結果を破棄しました",
			slog.String("section", string(section)),
			slog.Uint64("seq", seq),
		)
		return
	}
	if c.applied[section] > seq {
		c.logger.Debug("古いロード結果を破棄しました",
			slog.String("section", string(section)),
			slog.Uint64("seq", seq),
		)
		return
	}
	c.applied[section] = seq
	patch(&c.snapshot)
	c.snapshot.Version++
	c.snapshot.UpdatedAt = c.now()
}

// fail はロード失敗をログに記録し、エラーバナーを表示する。
// キャンセルによる失敗（手動更新の中断など）はバナーを出さない。
func (c *Controller) fail(ctx context.Context, section model.Section, err error) {
	if isCanceled(ctx, err) {
		c.logger.Debug("キャンセルされたロードを破棄しました", slog.String("section", string(section)))
		return
	}
	loadErr := model.NewLoadError(section, err)
	c.logger.Error("セクションの読み込みに失敗しました",
		slog.String("section", string(section)),
		slog.String("code", loadErr.Code),
		slog.String("error", err.Error()),
	)
	c.recorder.RecordLoadFailure(string(section))
	c.notifier.Notify(loadErr.Message, true)
}

func isCanceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled)
}
