// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 TextScore HTTP API 的请求处理器实现。

# 核心类型

  - ScoreHandler：分词、批量评测、单句对比较、指标列表与报告查询
  - HealthHandler：存活与就绪检查、版本信息
  - Response：统一 JSON 响应结构（success + data + error + timestamp + request_id）
  - ErrorInfo：结构化错误信息，含 code、message、metric、retryable
  - ResponseWriter：包装 http.ResponseWriter 以捕获状态码与响应大小
  - HealthCheck：可插拔健康检查接口，PingCheck 用于缓存与存储

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON
  - 请求验证：DecodeJSONBody 严格模式，超出 MaxBytesReader 限制时返回 413
  - ErrorCode → HTTP 状态码映射：输入契约错误为 400，未注册的指标为 501，
    远端评测服务错误为 502/504
  - 评测配置通过 SettingsFunc 按请求读取，配置热更新后立即生效
*/
package handlers
