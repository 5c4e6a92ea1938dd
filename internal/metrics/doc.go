// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖 HTTP、评测调用、
分词与评分缓存。

# 核心类型

  - Collector：持有各类向量指标，通过 promauto.With 注册到调用方给定的
    prometheus.Registerer，测试可使用独立注册表。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 评测指标：score_requests_total{metric,status}、score_duration_seconds、
    score_batch_size，status 为 success 或错误码。Collector 实现 metric.Observer。
  - 分词指标：segment_total{language}。
  - 缓存指标：cache_hits_total、cache_misses_total，按 metric 分组，
    Collector 实现 metric.HitObserver。
*/
package metrics
