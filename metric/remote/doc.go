// Package remote 通过 HTTP 调用外部评测服务（ROUGE、chrF、BERTScore、BLEU、METEOR、BLEURT）。
//
// 请求为 POST {endpoint}/v1/score，响应中的 scores 与句对按下标对齐。
// 客户端自带 rate.Limiter 限速，429、5xx 与网络错误按线性退避重试。
package remote
