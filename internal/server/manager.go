package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ErrClosed Manager 关闭后不能再次启动
var ErrClosed = errors.New("server is closed")

type state int

const (
	stateIdle state = iota
	stateRunning
	stateClosed
)

// Config 监听地址与 http.Server 超时
type Config struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig 写超时按远端评测服务的最慢响应预留
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Manager 管理单个 http.Server 的启动、异常退出与优雅关闭。
// 一个进程里 API 与 metrics 各用一个 Manager，name 用于区分日志。
type Manager struct {
	name   string
	cfg    Config
	srv    *http.Server
	logger *zap.Logger

	mu    sync.RWMutex
	state state
	addr  net.Addr

	errs chan error
}

func NewManager(name string, handler http.Handler, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		name: name,
		cfg:  cfg,
		srv: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger: logger.With(zap.String("component", "http_server"), zap.String("server", name)),
		errs:   make(chan error, 1),
	}
}

// Start 绑定端口后在后台提供服务，端口被占用时同步返回错误
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateClosed:
		return ErrClosed
	case stateRunning:
		return fmt.Errorf("server %s already started", m.name)
	}

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.cfg.Addr, err)
	}
	m.addr = ln.Addr()
	m.state = stateRunning
	m.logger.Info("listening", zap.Stringer("addr", m.addr))

	go func() {
		err := m.srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		m.logger.Error("serve failed", zap.Error(err))
		select {
		case m.errs <- err:
		default:
		}
	}()
	return nil
}

// Shutdown 等待进行中的请求完成，最长 ShutdownTimeout。重复调用返回 nil
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateClosed {
		return nil
	}
	wasRunning := m.state == stateRunning
	m.state = stateClosed
	if !wasRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
	defer cancel()
	start := time.Now()
	if err := m.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown %s: %w", m.name, err)
	}
	m.logger.Info("stopped", zap.Duration("drain", time.Since(start)))
	return nil
}

// Wait 阻塞到 SIGINT/SIGTERM、ctx 结束或服务异常退出。
// 只有异常退出返回错误，关闭由调用方负责。
func (m *Manager) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-m.errs:
		return err
	case <-sigCtx.Done():
		if ctx.Err() == nil {
			m.logger.Info("shutdown signal received")
		}
		return nil
	}
}

// Errors 服务异常退出时收到一次错误
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// Addr 启动后返回实际监听地址，便于使用 :0 端口
func (m *Manager) Addr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.addr != nil {
		return m.addr.String()
	}
	return m.cfg.Addr
}

func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == stateRunning
}
