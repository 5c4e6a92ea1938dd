// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 store 持久化评测报告。

Report 记录一次评测请求的指标、超参数、逐句对分数与汇总统计。
MemoryStore 适用于开发与测试；GormStore 通过 internal/database 打开
postgres、mysql 或 sqlite，将嵌套字段以 JSON 文本写入 textscore_reports 表。
Open 按 config.DatabaseConfig.Driver 选择实现。
*/
package store
