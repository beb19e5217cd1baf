package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/gardenboard/internal/activity"
	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/config"
	"github.com/hitoshi/gardenboard/internal/gardenapi"
	"github.com/hitoshi/gardenboard/internal/handler"
	"github.com/hitoshi/gardenboard/internal/logger"
	"github.com/hitoshi/gardenboard/internal/metrics"
	"github.com/hitoshi/gardenboard/internal/middleware"
	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/notifier"
	"github.com/hitoshi/gardenboard/internal/security"
	"github.com/hitoshi/gardenboard/internal/worker/warm"
)

// Init はアプリケーションの初期化を行う。
// .envを読み込んだうえで環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（既存の環境変数を優先）
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("backend_url", cfg.BackendURL),
		slog.String("timezone", cfg.Location.String()),
	)

	return runServe(cfg)
}

// Server は起動に必要な組み立て済みのコンポーネント。
type Server struct {
	Handler     http.Handler
	Controller  *board.Controller
	RateLimiter *middleware.RateLimiter
	// Warmer はWARM_INTERVALが0の場合はnil。
	Warmer *warm.Scheduler
	// Watcher はボード設定ファイルが指定されていない場合はnil。
	Watcher *config.Watcher
	// Title は現在のページタイトルを返す。設定ファイルの再読み込みで変わる。
	Title func() string
	// Privileged は手動更新の権限付き参加者の集合。設定ファイルの再読み込みで差し替わる。
	Privileged *board.PrivilegedSet
}

// Build は設定から全依存関係をワイヤリングする。
// regにはアプリケーションのメトリクスを登録する。
func Build(cfg *config.Config, log *slog.Logger, reg *prometheus.Registry) (*Server, error) {
	model.TimestampLocation = cfg.Location

	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. バックエンドクライアント
	backendHTTP, err := newBackendHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	client := gardenapi.NewClient(backendHTTP, log, cfg.BackendURL,
		gardenapi.WithRecorder(collector),
		gardenapi.WithMaxBodySize(cfg.BackendMaxSize),
	)

	// 3. ボード
	privileged := board.NewPrivilegedSet(cfg.PrivilegedIDs)
	var title atomic.Pointer[string]
	initialTitle := cfg.Title
	title.Store(&initialTitle)
	titleFn := func() string { return *title.Load() }

	banners := notifier.New(cfg.NoticeTTL, collector)
	controller := board.NewController(client, banners, log, collector, board.ControllerConfig{
		Location:     cfg.Location,
		Authorizer:   privileged,
		TriggerCheck: cfg.RefreshTriggersCheck,
		Timeout:      cfg.BackendTimeout,
	})

	// 4. 公開アクティビティフィード
	fetcher := activity.NewFetcher(
		security.NewSSRFGuard(),
		security.NewTextSanitizer(),
		security.NewContentSanitizer(),
		log,
		cfg.ActivityFeedBase,
		cfg.ActivityTimeout,
		cfg.BackendMaxSize,
	)

	// 5. ルーターの構築
	// configのレート制限はreq/min単位
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRefresh))

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:         log,
		RateLimiter:    rateLimiter,
		CSRF:           middleware.CSRFConfig{CookieSecure: cfg.CookieSecure, CookieDomain: cfg.CookieDomain},
		StatusRecorder: collector,
		TrustProxy:     cfg.TrustProxy,

		Controller:      controller,
		Sessions:        client,
		SectionRecorder: collector,
		Title:           titleFn,

		AuthURLs: client,

		ProfileBackend: client,
		Activity:       fetcher,

		MetricsHandler: metrics.Handler(reg),
	})

	srv := &Server{
		Handler:     router,
		Controller:  controller,
		RateLimiter: rateLimiter,
		Title:       titleFn,
		Privileged:  privileged,
	}

	// 6. バックグラウンド先読み
	if cfg.WarmInterval > 0 {
		srv.Warmer = warm.NewScheduler(controller, fetcher, log, cfg.WarmMaxConcurrent)
	}

	// 7. ボード設定ファイルの監視
	// ファイルから消えたキーは環境変数と既定値に戻る。notice_ttlは起動時のみ反映する。
	if cfg.BoardConfigPath != "" {
		base := cfg.BoardBase()
		srv.Watcher = config.NewWatcher(cfg.BoardConfigPath, log, func(f *config.BoardFile) {
			s := f.Resolve(base)
			privileged.Replace(s.PrivilegedIDs)
			t := s.Title
			title.Store(&t)
		})
	}

	return srv, nil
}

// newBackendHTTPClient はバックエンド呼び出し用のHTTPクライアントを生成する。
// BACKEND_GUARD が有効な場合は、バックエンドのポートだけを許可したSSRF防止クライアントを使う。
func newBackendHTTPClient(cfg *config.Config) (*http.Client, error) {
	if !cfg.BackendGuard {
		return &http.Client{Timeout: cfg.BackendTimeout}, nil
	}

	port, err := urlPort(cfg.BackendURL)
	if err != nil {
		return nil, err
	}
	guard := security.NewSSRFGuard(port)
	if err := guard.ValidateURL(cfg.BackendURL); err != nil {
		return nil, fmt.Errorf("BACKEND_URL is rejected by the guard: %w", err)
	}
	return guard.NewSafeClient(cfg.BackendTimeout, cfg.BackendMaxSize), nil
}

// urlPort はURLのポート番号を返す。省略時はスキームの既定ポート。
func urlPort(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if p := u.Port(); p != "" {
		return strconv.Atoi(p)
	}
	if u.Scheme == "https" {
		return 443, nil
	}
	return 80, nil
}

// runServe はボードサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := Build(cfg, slog.Default(), reg)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	defer srv.RateLimiter.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if srv.Watcher != nil {
		go func() {
			if err := srv.Watcher.Run(ctx); err != nil {
				slog.Error("board config watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if srv.Warmer != nil {
		go srv.Warmer.Start(ctx, cfg.WarmInterval)
	}

	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.ServerPort),
		Handler:      srv.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("board server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down board server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("board server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
