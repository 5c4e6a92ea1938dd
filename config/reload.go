package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReloadCallback 新配置生效后调用，changed 为发生变化的顶层配置段（yaml 名称）
type ReloadCallback func(old, new *Config, changed []string)

// Reloader 监听配置文件，变更通过校验后原子替换当前配置。
// 校验失败时保留旧配置。只有读取方每次调用 Current 的配置段才能热更新，
// server 端口等启动期参数需要重启才生效。
type Reloader struct {
	mu        sync.RWMutex
	loader    *Loader
	current   *Config
	version   int
	callbacks []ReloadCallback
	watcher   *FileWatcher
	logger    *zap.Logger
	pollEvery time.Duration
}

// ReloaderOption 配置 Reloader
type ReloaderOption func(*Reloader)

// WithReloadLogger 设置日志
func WithReloadLogger(logger *zap.Logger) ReloaderOption {
	return func(r *Reloader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReloadPollInterval 设置文件轮询间隔
func WithReloadPollInterval(d time.Duration) ReloaderOption {
	return func(r *Reloader) { r.pollEvery = d }
}

// NewReloader 以已加载的配置创建 Reloader
func NewReloader(loader *Loader, initial *Config, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		loader:    loader,
		current:   initial,
		version:   1,
		logger:    zap.NewNop(),
		pollEvery: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "config_reloader"))
	return r
}

// Current 返回当前配置，调用方不得修改
func (r *Reloader) Current() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Version 返回配置版本号，每次成功重载加一
func (r *Reloader) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// OnReload 注册重载回调
func (r *Reloader) OnReload(cb ReloadCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Start 开始监听配置文件，未设置路径时直接返回
func (r *Reloader) Start(ctx context.Context) error {
	path := r.loader.ConfigPath()
	if path == "" {
		return nil
	}
	w, err := NewFileWatcher(path,
		WithPollInterval(r.pollEvery),
		WithDebounceDelay(200*time.Millisecond),
		WithWatcherLogger(r.logger))
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	w.OnChange(func(evt FileEvent) {
		if evt.Op == FileOpRemove {
			r.logger.Warn("config file removed, keeping current config", zap.String("path", evt.Path))
			return
		}
		if err := r.Reload(); err != nil {
			r.logger.Error("config reload failed, keeping current config", zap.Error(err))
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return nil
}

// Stop 停止监听
func (r *Reloader) Stop() error {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// Reload 重新加载配置文件并在校验通过后替换当前配置
func (r *Reloader) Reload() error {
	next, err := r.loader.Load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.current
	changed := changedSections(old, next)
	if len(changed) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.current = next
	r.version++
	version := r.version
	callbacks := append([]ReloadCallback(nil), r.callbacks...)
	r.mu.Unlock()

	r.logger.Info("config reloaded",
		zap.Int("version", version),
		zap.Strings("changed", changed))
	for _, cb := range callbacks {
		cb(old, next, changed)
	}
	return nil
}

// changedSections 比较两个配置的顶层配置段
func changedSections(old, next *Config) []string {
	if old == nil {
		old = &Config{}
	}
	ov := reflect.ValueOf(old).Elem()
	nv := reflect.ValueOf(next).Elem()
	t := ov.Type()

	var changed []string
	for i := 0; i < t.NumField(); i++ {
		if !reflect.DeepEqual(ov.Field(i).Interface(), nv.Field(i).Interface()) {
			changed = append(changed, t.Field(i).Tag.Get("yaml"))
		}
	}
	return changed
}
