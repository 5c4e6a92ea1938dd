package metric

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/textscore/internal/cache"
)

// Cache 是 CachedScorer 依赖的最小缓存能力，*cache.Manager 实现了该接口。
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// HitObserver 记录缓存命中情况。
type HitObserver interface {
	ObserveCache(metric string, hit bool)
}

// CachedScorer 以整理后的输入为键缓存协作方结果。
// 缓存读写失败只记日志，不影响评测结果。
type CachedScorer struct {
	inner    Scorer
	cache    Cache
	ttl      time.Duration
	observer HitObserver
	logger   *zap.Logger
}

// CacheOption 配置 CachedScorer。
type CacheOption func(*CachedScorer)

// WithTTL 设置缓存过期时间，0 表示使用缓存的默认值。
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedScorer) { c.ttl = ttl }
}

// WithCacheLogger 设置日志。
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *CachedScorer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHitObserver 设置命中观测。
func WithHitObserver(o HitObserver) CacheOption {
	return func(c *CachedScorer) { c.observer = o }
}

// NewCachedScorer 包装 inner，cache 为 nil 时直接返回 inner 的行为。
func NewCachedScorer(inner Scorer, c Cache, opts ...CacheOption) *CachedScorer {
	s := &CachedScorer{
		inner:  inner,
		cache:  c,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *CachedScorer) Score(ctx context.Context, in *Input) ([]PairScore, error) {
	if s.cache == nil {
		return s.inner.Score(ctx, in)
	}

	key, err := CacheKey(in)
	if err != nil {
		s.logger.Warn("cache key failed", zap.String("metric", string(in.Kind)), zap.Error(err))
		return s.inner.Score(ctx, in)
	}

	var cached []PairScore
	switch err := s.cache.GetJSON(ctx, key, &cached); {
	case err == nil && len(cached) == in.Len():
		s.observe(in.Kind, true)
		return cached, nil
	case err != nil && !cache.IsCacheMiss(err):
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	s.observe(in.Kind, false)

	scores, err := s.inner.Score(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, scores, s.ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return scores, nil
}

func (s *CachedScorer) observe(kind Kind, hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(string(kind), hit)
	}
}

// CacheKey 返回 textscore:<metric>:<sha256(input)>。
func CacheKey(in *Input) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("textscore:%s:%s", in.Kind, hex.EncodeToString(sum[:])), nil
}
