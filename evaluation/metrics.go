package evaluation

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxParallelMetrics ComputeAll 同时计算的指标数上限
const maxParallelMetrics = 4

// Metric 单个句对上的评测指标
type Metric interface {
	Name() string
	Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error)
}

// EvalInput 评测输入。Reference 为空时指标可退回 Expected
type EvalInput struct {
	Prompt    string         `json:"prompt,omitempty"`
	Reference string         `json:"reference,omitempty"`
	Expected  string         `json:"expected,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// EvalOutput 被评测的候选输出
type EvalOutput struct {
	Response string         `json:"response"`
	Latency  time.Duration  `json:"latency,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEvalInput 以参考文本创建输入
func NewEvalInput(reference string) *EvalInput {
	return &EvalInput{Reference: reference}
}

// NewEvalOutput 以候选文本创建输出
func NewEvalOutput(response string) *EvalOutput {
	return &EvalOutput{Response: response}
}

// PairResult 一个句对在全部指标上的结果，Failures 记录各指标的错误信息
type PairResult struct {
	Scores      map[string]float64 `json:"scores"`
	Failures    map[string]string  `json:"failures,omitempty"`
	Passed      bool               `json:"passed"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}

// MetricRegistry 按名称保存 Metric，同名注册覆盖旧值
type MetricRegistry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

// NewMetricRegistry 创建空注册表
func NewMetricRegistry() *MetricRegistry {
	return &MetricRegistry{metrics: make(map[string]Metric)}
}

func (r *MetricRegistry) Register(m Metric) {
	r.mu.Lock()
	r.metrics[m.Name()] = m
	r.mu.Unlock()
}

func (r *MetricRegistry) Get(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	return m, ok
}

// List 返回排序后的指标名
func (r *MetricRegistry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// ComputeAll 并发计算全部指标。单个指标失败记入 Failures 并使 Passed 为 false，
// 只有 ctx 结束才返回错误。
func (r *MetricRegistry) ComputeAll(ctx context.Context, input *EvalInput, output *EvalOutput) (*PairResult, error) {
	r.mu.RLock()
	metrics := make([]Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		metrics = append(metrics, m)
	}
	r.mu.RUnlock()

	result := &PairResult{
		Scores: make(map[string]float64, len(metrics)),
		Passed: true,
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelMetrics)
	for _, m := range metrics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := m.Compute(gctx, input, output)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if result.Failures == nil {
					result.Failures = make(map[string]string)
				}
				result.Failures[m.Name()] = err.Error()
				result.Passed = false
				return nil
			}
			result.Scores[m.Name()] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.EvaluatedAt = time.Now()
	return result, nil
}
