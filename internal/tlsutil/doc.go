// Package tlsutil 为调用远程评测服务的 HTTP 客户端提供统一的 TLS 设置
// （TLS 1.2+，TLS 1.2 下仅 AEAD 密码套件）。
package tlsutil
