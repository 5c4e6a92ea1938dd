// Package config 提供 TextScore 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → TEXTSCORE_* 环境变量 的顺序加载并校验，
// Reloader 轮询配置文件，校验通过后热替换评测默认值与日志级别。
package config
