package evaluation

import (
	"math"
	"sort"

	"github.com/BaSui01/textscore/metric"
)

// Summary 一组分数的统计汇总
type Summary struct {
	Count       int                `json:"count"`
	Mean        float64            `json:"mean"`
	StdDev      float64            `json:"std_dev"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Median      float64            `json:"median"`
	Percentiles map[string]float64 `json:"percentiles,omitempty"` // p50, p90, p95, p99
}

// Summarize 计算分数汇总，不修改 values
func Summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	s.Mean = total / float64(len(sorted))
	s.StdDev = calculateStdDev(sorted, s.Mean)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = calculatePercentile(sorted, 50)
	s.Percentiles = map[string]float64{
		"p50": s.Median,
		"p90": calculatePercentile(sorted, 90),
		"p95": calculatePercentile(sorted, 95),
		"p99": calculatePercentile(sorted, 99),
	}
	return s
}

// SummarizeResult 按指标汇总一次评测结果
func SummarizeResult(result *metric.Result) map[string]Summary {
	if result == nil {
		return nil
	}
	out := make(map[string]Summary, len(result.Scores))
	for _, kind := range result.Kinds() {
		out[string(kind)] = Summarize(result.Values(kind))
	}
	return out
}

// 线性插值分位数，sorted 必须升序
func calculatePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// 总体标准差
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}
