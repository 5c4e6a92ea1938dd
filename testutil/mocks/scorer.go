// MockScorer 是 metric.Scorer 的测试模拟实现。
//
// 支持固定分数、按句对计算、错误注入与延迟场景。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/textscore/metric"
)

// --- MockScorer 结构 ---

// MockScorer 是 metric.Scorer 的模拟实现
type MockScorer struct {
	mu sync.RWMutex

	score     float64
	scoreFunc func(ref, cand string) float64
	err       error
	failAfter int
	delay     time.Duration

	calls []*metric.Input
}

// --- 构造函数和 Builder 方法 ---

// NewMockScorer 创建对每个句对返回 1 的 MockScorer
func NewMockScorer() *MockScorer {
	return &MockScorer{score: 1}
}

// WithScore 设置固定分数
func (m *MockScorer) WithScore(score float64) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.score = score
	m.scoreFunc = nil
	return m
}

// WithScoreFunc 按原始参考文本与候选文本计算分数
func (m *MockScorer) WithScoreFunc(fn func(ref, cand string) float64) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreFunc = fn
	return m
}

// WithError 每次调用都返回 err
func (m *MockScorer) WithError(err error) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 前 n 次调用成功，之后返回 WithError 设置的错误
func (m *MockScorer) WithFailAfter(n int) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithDelay 每次调用前等待 d，ctx 取消时提前返回
func (m *MockScorer) WithDelay(d time.Duration) *MockScorer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// --- metric.Scorer 实现 ---

// Score implements metric.Scorer.
func (m *MockScorer) Score(ctx context.Context, in *metric.Input) ([]metric.PairScore, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	n := len(m.calls)
	delay, err, failAfter := m.delay, m.err, m.failAfter
	score, scoreFunc := m.score, m.scoreFunc
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil && n > failAfter {
		return nil, err
	}

	out := make([]metric.PairScore, in.Len())
	for i := range out {
		if scoreFunc != nil {
			out[i] = metric.PairScore{Score: scoreFunc(in.References[i], in.Candidates[i])}
		} else {
			out[i] = metric.PairScore{Score: score}
		}
	}
	return out, nil
}

// --- 调用记录 ---

// Calls 返回全部调用的输入
func (m *MockScorer) Calls() []*metric.Input {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*metric.Input(nil), m.calls...)
}

// CallCount 返回调用次数
func (m *MockScorer) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// LastInput 返回最近一次调用的输入，未调用时返回 nil
func (m *MockScorer) LastInput() *metric.Input {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

var _ metric.Scorer = (*MockScorer)(nil)
