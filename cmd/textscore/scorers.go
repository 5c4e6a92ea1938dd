package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/textscore/config"
	"github.com/BaSui01/textscore/internal/cache"
	"github.com/BaSui01/textscore/internal/metrics"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/metric/edit"
	"github.com/BaSui01/textscore/metric/remote"
)

// scorerSet 是注册好协作方的 Registry 及其需要释放的资源
type scorerSet struct {
	Registry *metric.Registry
	Cache    *cache.Manager
}

// Close 释放缓存连接
func (s *scorerSet) Close() error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

// buildScorers 按配置注册协作方：wer 在进程内计算，其余指标在配置了
// remote.endpoint 时交给远程服务，开启缓存后远程结果经 redis 缓存，
// 返回前由 OverlapScorer 补充 bleu/meteor 精确率召回率与 chrf 逐阶统计。
// collector 为 nil 时不采集指标。
func buildScorers(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, opts ...metric.RegistryOption) (*scorerSet, error) {
	regOpts := []metric.RegistryOption{
		metric.WithLogger(logger),
		metric.WithConcurrency(cfg.Scoring.Concurrency),
	}
	if collector != nil {
		regOpts = append(regOpts, metric.WithObserver(collector))
	}
	set := &scorerSet{Registry: metric.NewRegistry(append(regOpts, opts...)...)}

	if err := set.Registry.Register(metric.KindWER, edit.WER{}); err != nil {
		return nil, err
	}

	if cfg.Remote.Endpoint == "" {
		logger.Info("remote.endpoint not configured, only in-process metrics are available")
		return set, nil
	}

	client, err := remote.NewClient(cfg.Remote, remote.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init remote scorer: %w", err)
	}
	kinds, err := metric.ParseKinds(cfg.Scoring.RemoteMetrics)
	if err != nil {
		return nil, err
	}

	var scorer metric.Scorer = client
	if cfg.Cache.Enabled {
		mgr, err := cache.NewManager(cfg.Cache.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("init score cache: %w", err)
		}
		set.Cache = mgr
		cacheOpts := []metric.CacheOption{
			metric.WithTTL(cfg.Cache.Redis.DefaultTTL),
			metric.WithCacheLogger(logger),
		}
		if collector != nil {
			cacheOpts = append(cacheOpts, metric.WithHitObserver(collector))
		}
		scorer = metric.NewCachedScorer(client, mgr, cacheOpts...)
	}

	// 缓存只保存远程结果，进程内补充的统计每次重新计算
	scorer = metric.NewOverlapScorer(scorer)
	for _, k := range kinds {
		if k == metric.KindWER {
			continue
		}
		if err := set.Registry.Register(k, scorer); err != nil {
			_ = set.Close()
			return nil, err
		}
	}
	logger.Info("remote scorer registered",
		zap.String("endpoint", cfg.Remote.Endpoint),
		zap.Strings("metrics", cfg.Scoring.RemoteMetrics),
		zap.Bool("cache", cfg.Cache.Enabled))
	return set, nil
}
