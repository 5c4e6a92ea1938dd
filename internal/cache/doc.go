// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的分数缓存。

Manager 封装 go-redis 客户端，只提供 JSON 读写。后台 ping 只在可用性
变化时记录日志，Close 会等待其退出。
metric.CachedScorer 通过 GetJSON/SetJSON 读写协作方结果，
未命中时返回 ErrCacheMiss，可用 IsCacheMiss 判断。
*/
package cache
