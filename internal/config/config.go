package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // distrolessイメージにはzoneinfoがない
)

// DefaultTitle はボード設定ファイルでタイトルが指定されない場合のページタイトル。
const DefaultTitle = "정원사들 출석부"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 設定ファイルの再読み込みで変わる値（タイトル、権限付き参加者）はWatcher経由で反映する。
type Config struct {
	// Server
	ServerPort string
	BaseURL    string
	TrustProxy bool

	// Backend
	BackendURL     string
	BackendTimeout time.Duration
	BackendMaxSize int64
	BackendGuard   bool

	// Board
	Title                string
	Location             *time.Location
	PrivilegedIDs        []string
	NoticeTTL            time.Duration
	RefreshTriggersCheck bool
	BoardConfigPath      string

	// Activity feed
	ActivityTimeout  time.Duration
	ActivityFeedBase string

	// Warm（0の場合は先読みしない）
	WarmInterval      time.Duration
	WarmMaxConcurrent int

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitRefresh int

	// Logging
	LogLevel string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// envBoard はボード設定ファイルを適用する前の値
	envBoard *BoardSettings
}

// BoardBase はボード設定ファイルを重ねる土台となる値を返す。
// Load で読み込んだ場合は環境変数と既定値だけから決まる値。
// 再読み込みでファイルからキーが消えた場合は、この値に戻す。
func (c *Config) BoardBase() BoardSettings {
	if c.envBoard != nil {
		return *c.envBoard
	}
	return c.boardSettings()
}

func (c *Config) boardSettings() BoardSettings {
	return BoardSettings{Title: c.Title, PrivilegedIDs: c.PrivilegedIDs, NoticeTTL: c.NoticeTTL}
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// BOARD_CONFIG_PATH が指定されている場合は、そのYAMLファイルの値で上書きする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BackendURL = strings.TrimRight(os.Getenv("BACKEND_URL"), "/")
	if cfg.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)
	cfg.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
	cfg.BackendMaxSize = getEnvInt64("BACKEND_MAX_SIZE", 5242880)
	cfg.BackendGuard = getEnvBool("BACKEND_GUARD", false)
	cfg.Title = DefaultTitle
	cfg.PrivilegedIDs = getEnvList("PRIVILEGED_IDS", []string{"junho85"})
	cfg.NoticeTTL = getEnvDuration("NOTICE_TTL", 3*time.Second)
	cfg.RefreshTriggersCheck = getEnvBool("REFRESH_TRIGGERS_CHECK", true)
	cfg.BoardConfigPath = getEnvString("BOARD_CONFIG_PATH", "")
	cfg.ActivityTimeout = getEnvDuration("ACTIVITY_TIMEOUT", 10*time.Second)
	cfg.ActivityFeedBase = strings.TrimRight(getEnvString("ACTIVITY_FEED_BASE", "https://github.com"), "/")
	cfg.WarmInterval = getEnvDuration("WARM_INTERVAL", 0)
	cfg.WarmMaxConcurrent = getEnvInt("WARM_MAX_CONCURRENT", 4)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRefresh = getEnvInt("RATE_LIMIT_REFRESH", 6)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	tz := getEnvString("BOARD_TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid BOARD_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	base := cfg.boardSettings()
	cfg.envBoard = &base

	if cfg.BoardConfigPath != "" {
		file, err := ReadBoardFile(cfg.BoardConfigPath)
		if err != nil {
			return nil, err
		}
		file.ApplyTo(cfg)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvList はカンマ区切りの値を読み込む。空要素は除外する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
