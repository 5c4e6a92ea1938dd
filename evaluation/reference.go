package evaluation

import (
	"context"

	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/types"
)

// ReferenceMetric 把 metric.Registry 中的一个指标适配为单样本 Metric。
// 参考文本取 input.Reference，为空时退回 input.Expected；候选文本取 output.Response。
type ReferenceMetric struct {
	Kind     metric.Kind
	Registry *metric.Registry
	Params   metric.Params
}

// NewReferenceMetric 创建参考指标
func NewReferenceMetric(kind metric.Kind, registry *metric.Registry, params metric.Params) *ReferenceMetric {
	return &ReferenceMetric{Kind: kind, Registry: registry, Params: params.Clone()}
}

// Name 返回指标名称
func (m *ReferenceMetric) Name() string {
	return string(m.Kind)
}

// Compute 对单个句对打分
func (m *ReferenceMetric) Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error) {
	if input == nil || output == nil {
		return 0, types.NewError(types.ErrInvalidRequest, "input and output are required")
	}
	ref := input.Reference
	if ref == "" {
		ref = input.Expected
	}

	scores, err := m.Registry.Score(ctx, m.Kind, segment.Batch{
		References: []string{ref},
		Candidates: []string{output.Response},
	}, m.Params)
	if err != nil {
		return 0, err
	}
	return scores[0].Score, nil
}

// RegisterReferenceMetrics 为 scorers 中每个已注册的指标注册一个 ReferenceMetric
func RegisterReferenceMetrics(registry *MetricRegistry, scorers *metric.Registry, params metric.Params) {
	for _, kind := range scorers.Kinds() {
		registry.Register(NewReferenceMetric(kind, scorers, params))
	}
}
