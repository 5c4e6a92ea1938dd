// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 server 管理 HTTP 服务器生命周期。

Manager 封装 net/http.Server：Start 在后台 goroutine 中监听并服务，
Wait 阻塞到收到 SIGINT/SIGTERM、ctx 结束或服务异常退出，
Shutdown 在 ShutdownTimeout 内排空请求。serve 命令为 API 与
/metrics 各启动一个实例。
*/
package server
