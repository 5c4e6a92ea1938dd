package metric

import "time"

// Observer 接收评测调用的观测数据，internal/metrics.Collector 实现了该接口。
type Observer interface {
	// ObserveScore 记录一次协作方调用，err 为 nil 表示成功。
	ObserveScore(metric string, pairs int, duration time.Duration, err error)
	// ObserveSegment 记录按某语言切分的句对数量。
	ObserveSegment(language string, pairs int)
}

type nopObserver struct{}

func (nopObserver) ObserveScore(string, int, time.Duration, error) {}
func (nopObserver) ObserveSegment(string, int)                     {}
