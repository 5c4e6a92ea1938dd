// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
Package main 提供 TextScore 命令行与 HTTP 服务入口。

# 概述

cmd/textscore 把分词、指标调度、报告存储组装成可执行程序。
离线评测直接读取 {references, candidates} 形式的 JSON/YAML 文件，
在线评测通过 serve 子命令暴露 JSON API。

# 核心类型

  - Server：组装 Registry、报告存储、缓存、遥测与两个 server.Manager
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler
  - scorerSet：按配置注册好协作方的 metric.Registry

# 主要能力

  - 子命令：segment、score、metrics、serve、health、version
  - 协作方：wer 在进程内计算，其余指标在配置 remote.endpoint 后
    交给远程服务，可选 redis 结果缓存
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    MetricsMiddleware、RequestLogger、MaxBody、RateLimiter、APIKeyAuth
  - 配置热更新：scoring 段与日志级别即时生效，其余配置段需要重启
  - Metrics 服务：独立端口暴露 /metrics，metrics_port 为 0 时挂在 API 端口
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
