package metric

import (
	"context"
	"slices"
	"time"
)

// Scorer 是外部评测协作方的调用契约。
// 返回值必须与 in.Len() 等长，按下标对应句对。
type Scorer interface {
	Score(ctx context.Context, in *Input) ([]PairScore, error)
}

// ScorerFunc 允许普通函数作为 Scorer 使用。
type ScorerFunc func(ctx context.Context, in *Input) ([]PairScore, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, in *Input) ([]PairScore, error) {
	return f(ctx, in)
}

// PairScore 是单个句对的得分。Precision/Recall/FScore 由协作方按需填充，
// Orders 只在 chrf 请求了多个 n-gram 阶数时出现。
type PairScore struct {
	Score     float64      `json:"score"`
	Precision *float64     `json:"precision,omitempty"`
	Recall    *float64     `json:"recall,omitempty"`
	FScore    *float64     `json:"fscore,omitempty"`
	Orders    []OrderScore `json:"orders,omitempty"`
}

// NewPRF 构造带精确率/召回率/F 值的得分，Score 取 score。
func NewPRF(score, precision, recall, fscore float64) PairScore {
	return PairScore{Score: score, Precision: &precision, Recall: &recall, FScore: &fscore}
}

// Detailed 报告是否带有 Score 之外的信息。
func (p PairScore) Detailed() bool {
	return p.Precision != nil || p.Recall != nil || p.FScore != nil || len(p.Orders) > 0
}

// Clone 返回不与 p 共享指针和切片的副本。
func (p PairScore) Clone() PairScore {
	return PairScore{
		Score:     p.Score,
		Precision: cloneFloat(p.Precision),
		Recall:    cloneFloat(p.Recall),
		FScore:    cloneFloat(p.FScore),
		Orders:    slices.Clone(p.Orders),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Result 是一次多指标评测的结果。
type Result struct {
	Scores    map[Kind][]PairScore `json:"scores"`
	Pairs     int                  `json:"pairs"`
	Duration  time.Duration        `json:"duration"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewResult 创建空结果。
func NewResult(pairs int) *Result {
	return &Result{
		Scores:    make(map[Kind][]PairScore),
		Pairs:     pairs,
		Timestamp: time.Now(),
	}
}

// Values 返回某指标的分数列表，指标不存在时返回 nil。
func (r *Result) Values(kind Kind) []float64 {
	scores, ok := r.Scores[kind]
	if !ok {
		return nil
	}
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	return values
}

// Kinds 按 AllKinds 顺序返回结果中包含的指标。
func (r *Result) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.Scores))
	for _, k := range allKinds {
		if _, ok := r.Scores[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
