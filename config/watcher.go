package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileOp 配置文件的变化类型
type FileOp int

const (
	FileOpCreate FileOp = iota
	FileOpWrite
	FileOpRemove
)

var fileOpNames = [...]string{FileOpCreate: "CREATE", FileOpWrite: "WRITE", FileOpRemove: "REMOVE"}

func (op FileOp) String() string {
	if op < 0 || int(op) >= len(fileOpNames) {
		return "UNKNOWN"
	}
	return fileOpNames[op]
}

// FileEvent 防抖窗口内最后一次观察到的变化
type FileEvent struct {
	Path      string    `json:"path"`
	Op        FileOp    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// fileState 用于比较两次轮询结果，size 变化同样视为写入
type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func statFile(path string) (fileState, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fileState{}, nil
	case err != nil:
		return fileState{}, err
	}
	return fileState{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
}

// diff 返回从 prev 到 cur 的变化，无变化时 ok 为 false
func (prev fileState) diff(cur fileState) (op FileOp, ok bool) {
	switch {
	case prev.exists && !cur.exists:
		return FileOpRemove, true
	case !prev.exists && cur.exists:
		return FileOpCreate, true
	case cur.exists && (cur.modTime.After(prev.modTime) || cur.size != prev.size):
		return FileOpWrite, true
	}
	return 0, false
}

// FileWatcher 以轮询方式监听单个配置文件，符号链接替换同样能被发现
type FileWatcher struct {
	path     string
	interval time.Duration
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	callbacks []func(FileEvent)
	cancel    context.CancelFunc
	done      chan struct{}
}

type WatcherOption func(*FileWatcher)

func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *FileWatcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithDebounceDelay 0 表示每次变化立即派发
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *FileWatcher) { w.debounce = max(d, 0) }
}

func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *FileWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewFileWatcher 路径可以暂不存在，创建后会收到 FileOpCreate
func NewFileWatcher(path string, opts ...WatcherOption) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := statFile(abs); err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}

	w := &FileWatcher{
		path:     abs,
		interval: time.Second,
		debounce: 100 * time.Millisecond,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *FileWatcher) Path() string { return w.path }

// OnChange 回调在监听协程中串行执行
func (w *FileWatcher) OnChange(fn func(FileEvent)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Start 启动监听协程，ctx 取消或 Stop 后退出，退出后可再次 Start
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return errors.New("config watcher already running")
	}

	baseline, err := statFile(w.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", w.path, err)
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, baseline, w.done)

	w.logger.Info("watching config file",
		zap.String("path", w.path),
		zap.Duration("interval", w.interval),
		zap.Bool("exists", baseline.exists))
	return nil
}

// Stop 等待监听协程退出，可重复调用
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (w *FileWatcher) run(ctx context.Context, last fileState, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		// 父 ctx 取消导致退出时清理运行状态；已被 Stop 或新一轮 Start 接管时不动
		if w.done == done && w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
		w.mu.Unlock()
		close(done)
	}()

	poll := time.NewTicker(w.interval)
	defer poll.Stop()

	var (
		pending *FileEvent
		flush   <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-poll.C:
			cur, err := statFile(w.path)
			if err != nil {
				w.logger.Warn("stat config file failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			op, changed := last.diff(cur)
			last = cur
			if !changed {
				continue
			}
			pending = &FileEvent{Path: w.path, Op: op, Timestamp: now}
			// 窗口内的后续变化只推迟派发，保留最后一次
			flush = time.After(w.debounce)

		case <-flush:
			flush = nil
			if pending != nil {
				w.dispatch(*pending)
				pending = nil
			}
		}
	}
}

func (w *FileWatcher) dispatch(evt FileEvent) {
	w.mu.Lock()
	callbacks := slices.Clone(w.callbacks)
	w.mu.Unlock()

	w.logger.Debug("config file changed", zap.String("path", evt.Path), zap.Stringer("op", evt.Op))
	for _, fn := range callbacks {
		fn(evt)
	}
}
