package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/BaSui01/textscore/evaluation"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/types"
)

// ErrClosed store 已关闭
var ErrClosed = errors.New("store is closed")

// Report 一次评测的持久化结果
type Report struct {
	ID        string                        `json:"id"`
	CreatedAt time.Time                     `json:"created_at"`
	Metrics   []string                      `json:"metrics"`
	Params    metric.Params                 `json:"params"`
	Pairs     int                           `json:"pairs"`
	Scores    map[string][]float64          `json:"scores"`
	// Details 协作方返回的完整句对结果，只保留带 precision/recall/fscore 或逐阶统计的指标
	Details   map[string][]metric.PairScore `json:"details,omitempty"`
	Summaries map[string]evaluation.Summary `json:"summaries"`
	Labels    map[string]string             `json:"labels,omitempty"`
}

// NewReport 从评测结果构造报告，ID 与 CreatedAt 由 Save 填充
func NewReport(result *metric.Result, params metric.Params, labels map[string]string) *Report {
	r := &Report{
		Params:    params.Clone(),
		Scores:    make(map[string][]float64),
		Summaries: make(map[string]evaluation.Summary),
		Labels:    maps.Clone(labels),
	}
	if result == nil {
		return r
	}
	r.Pairs = result.Pairs
	for _, kind := range result.Kinds() {
		r.Metrics = append(r.Metrics, kind.String())
		r.Scores[kind.String()] = result.Values(kind)
		if pairs := result.Scores[kind]; slices.ContainsFunc(pairs, metric.PairScore.Detailed) {
			if r.Details == nil {
				r.Details = make(map[string][]metric.PairScore)
			}
			r.Details[kind.String()] = clonePairs(pairs)
		}
	}
	r.Summaries = evaluation.SummarizeResult(result)
	return r
}

// Clone 返回深拷贝
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Metrics = append([]string(nil), r.Metrics...)
	out.Params = r.Params.Clone()
	out.Labels = maps.Clone(r.Labels)
	if r.Scores != nil {
		out.Scores = make(map[string][]float64, len(r.Scores))
		for k, v := range r.Scores {
			out.Scores[k] = append([]float64(nil), v...)
		}
	}
	if r.Details != nil {
		out.Details = make(map[string][]metric.PairScore, len(r.Details))
		for k, v := range r.Details {
			out.Details[k] = clonePairs(v)
		}
	}
	if r.Summaries != nil {
		out.Summaries = make(map[string]evaluation.Summary, len(r.Summaries))
		for k, s := range r.Summaries {
			s.Percentiles = maps.Clone(s.Percentiles)
			out.Summaries[k] = s
		}
	}
	return &out
}

func clonePairs(in []metric.PairScore) []metric.PairScore {
	out := make([]metric.PairScore, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// Store 评测报告存储
type Store interface {
	// Save 保存报告，ID 为空时生成 UUID，相同 ID 覆盖
	Save(ctx context.Context, report *Report) error
	// Load 读取报告，不存在时返回 NOT_FOUND
	Load(ctx context.Context, id string) (*Report, error)
	// List 按创建时间倒序返回，limit <= 0 表示全部
	List(ctx context.Context, limit int) ([]*Report, error)
	// Delete 删除报告，不存在时返回 NOT_FOUND
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func notFound(id string) error {
	return types.Errorf(types.ErrNotFound, "report %s not found", id).WithHTTPStatus(404)
}

func invalidReport() error {
	return types.NewError(types.ErrInvalidRequest, "report cannot be nil")
}
