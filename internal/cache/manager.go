package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrCacheMiss 键不存在或已过期
	ErrCacheMiss = errors.New("cache miss")
	// ErrClosed Close 之后的任何调用
	ErrClosed = errors.New("cache manager is closed")
)

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Config redis 连接与分数缓存参数
type Config struct {
	Addr     string `yaml:"addr" json:"addr" env:"ADDR"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" json:"db" env:"DB"`

	// SetJSON 传入 ttl 为 0 时使用
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl" env:"DEFAULT_TTL"`

	MaxRetries   int `yaml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`
	PoolSize     int `yaml:"pool_size" json:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns" env:"MIN_IDLE_CONNS"`

	// 0 关闭后台 ping
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// DefaultConfig 同一输入的分数不会变化，TTL 只用于回收空间
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		DefaultTTL:          24 * time.Hour,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Manager 以 JSON 形式在 redis 中保存协作方返回的分数
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	closed atomic.Bool
	stop   context.CancelFunc
	done   chan struct{}
}

// NewManager 连接 redis，启动时 ping 失败直接返回错误
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	loopCtx, stop := context.WithCancel(context.Background())
	m := &Manager{
		client: client,
		ttl:    cfg.DefaultTTL,
		logger: logger.With(zap.String("component", "score_cache")),
		stop:   stop,
		done:   make(chan struct{}),
	}
	go m.watch(loopCtx, cfg.HealthCheckInterval)

	m.logger.Info("score cache connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Duration("default_ttl", cfg.DefaultTTL))
	return m, nil
}

// GetJSON 未命中返回 ErrCacheMiss
func (m *Manager) GetJSON(ctx context.Context, key string, dest any) error {
	if m.closed.Load() {
		return ErrClosed
	}
	raw, err := m.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON ttl 为 0 时使用 DefaultTTL
func (m *Manager) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl == 0 {
		ttl = m.ttl
	}
	if err := m.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}
	return m.client.Del(ctx, keys...).Err()
}

// Ping 供 /readyz 使用
func (m *Manager) Ping(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return m.client.Ping(ctx).Err()
}

// Close 停止后台 ping 并关闭连接池，可重复调用
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.stop()
	<-m.done
	return m.client.Close()
}

func (m *Manager) watch(ctx context.Context, every time.Duration) {
	defer close(m.done)
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.client.Ping(pingCtx).Err()
		cancel()

		// 只在状态变化时记录，避免 redis 长时间不可用时刷屏
		switch {
		case err != nil && healthy && ctx.Err() == nil:
			m.logger.Error("score cache unreachable, scoring continues without cache", zap.Error(err))
			healthy = false
		case err == nil && !healthy:
			m.logger.Info("score cache reachable again")
			healthy = true
		}
	}
}
