// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 metric 负责把指标名称分派到外部评测协作方。

本包不实现任何指标算法。它做三件事：

  - 校验输入契约（批次非空、两侧等长、无空字符串、chrF 最小长度）；
  - 按指标整理输入形式：BLEU/METEOR/WER 使用 token 序列，
    ROUGE 使用空格拼接的分词结果，chrF/BERTScore/BLEURT 使用原始字符串；
  - 通过 Registry 调用已注册的 Scorer，并校验返回的分数条数。

# 核心类型

  - Kind：指标名称，ParseKind 对未知名称返回 UNKNOWN_METRIC。
  - Params：协作方超参数，DefaultParams 给出默认值。
  - Input：整理好的协作方输入。
  - Scorer：协作方契约，见 metric/remote 与 metric/edit。
  - Registry：Score 计算单个指标，Evaluate 并发计算多个指标。
  - CachedScorer：以输入摘要为键缓存协作方结果。
*/
package metric
