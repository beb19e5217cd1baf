package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher はボード設定ファイルの変更を監視し、再読み込みした内容をコールバックに渡す。
// エディタの置き換え保存に対応するため、ファイルではなく親ディレクトリを監視する。
type Watcher struct {
	path     string
	onChange func(*BoardFile)
	logger   *slog.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher はWatcherを生成する。
func NewWatcher(path string, logger *slog.Logger, onChange func(*BoardFile)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
		debounce: defaultDebounce,
	}
}

// Run はctxがキャンセルされるまで監視を続ける。
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	name := filepath.Base(w.path)
	w.logger.Info("watching board config", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("board config watcher error", slog.String("error", err.Error()))
		}
	}
}

// Reload はファイルを読み直してコールバックを呼ぶ。
// 読み込みに失敗した場合は現在の設定を維持する。
func (w *Watcher) Reload() {
	f, err := ReadBoardFile(w.path)
	if err != nil {
		w.logger.Error("failed to reload board config", slog.String("error", err.Error()))
		return
	}
	w.onChange(f)
	w.logger.Info("board config reloaded",
		slog.String("path", w.path),
		slog.Int("privileged_ids", len(f.PrivilegedIDs)),
	)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.Reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
