/*
Package testutil 提供 TextScore 测试的共享工具和辅助函数。

# 概述

testutil 为各包的单元测试提供统一的上下文、异步断言与 JSON 工具，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue / WaitFor
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: MockScorer，可配置固定分数、按句对计算、错误注入与延迟，
    并记录每次调用的 metric.Input
  - testutil/fixtures: 英文、中文与混合语言的句对批次
*/
package testutil
