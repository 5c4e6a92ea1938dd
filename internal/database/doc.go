// Copyright (c) TextScore Authors.
// Licensed under the MIT License.

/*
包 database 为报告存储打开 GORM 连接并管理连接池。

Open 按 config.DatabaseConfig.Driver 选择 postgres、mysql 或 sqlite
（纯 Go 实现的 glebarez/sqlite）方言，设置连接池参数并探活。
Pool.WithTransaction 在死锁、序列化失败、连接中断等错误上按指数退避重试。
*/
package database
