// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 evaluation 把批量指标适配为单样本评估，并提供分数统计汇总。

# 核心类型

  - Metric / MetricRegistry：单样本指标接口与注册表，ComputeAll 逐个计算，
    失败的指标记入结果的 Errors。
  - ReferenceMetric：把 metric.Registry 中的一个指标包装为 Metric，
    以 (Reference 或 Expected, Response) 作为句对打分。
  - Summary：均值、标准差、最值、中位数与 p50/p90/p95/p99 分位数。
*/
package evaluation
