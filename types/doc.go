// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
Package types 提供 TextScore 的全局共享类型定义。

# 概述

types 是模块最底层的公共包，不依赖任何内部包，为 segment、metric、
evaluation、store、api 等上层模块提供统一的错误契约。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 HTTP 状态码、Retryable、Metric 标记

# 主要能力

  - 输入契约错误：EMPTY_INPUT / LENGTH_MISMATCH / INVALID_LANGUAGE / INPUT_TOO_SHORT
  - 调度错误：UNKNOWN_METRIC / SCORER_NOT_REGISTERED
  - 协作方错误：UPSTREAM_ERROR / UPSTREAM_TIMEOUT / RATE_LIMITED / INVALID_RESPONSE
  - 错误工具链：AsError / IsCode / GetErrorCode / IsRetryable（均基于 errors.As）
*/
package types
