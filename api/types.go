package api

import (
	"encoding/json"
	"time"

	"github.com/BaSui01/textscore/evaluation"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/store"
)

// =============================================================================
// 分词
// =============================================================================

// SegmentRequest 分词请求
type SegmentRequest struct {
	References []string `json:"references"`
	Candidates []string `json:"candidates"`
	// 语言覆盖：word、char 或别名 en、zh，为空时按参考文本判定
	Language string `json:"language,omitempty"`
}

// SegmentResponse 分词结果，与请求按下标对齐
type SegmentResponse struct {
	References [][]string `json:"references"`
	Candidates [][]string `json:"candidates"`
	Languages  []string   `json:"languages"`
}

// =============================================================================
// 评测
// =============================================================================

// ScoreRequest 评测请求
type ScoreRequest struct {
	References []string `json:"references"`
	Candidates []string `json:"candidates"`
	// 为空时使用 scoring.default_metrics
	Metrics []string `json:"metrics,omitempty"`
	// 覆盖 scoring.params 中的部分字段，未出现的字段保持默认
	Params json.RawMessage   `json:"params,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// ScoreResponse 评测结果
type ScoreResponse struct {
	ReportID  string                        `json:"report_id,omitempty"`
	Pairs     int                           `json:"pairs"`
	Scores    map[string][]metric.PairScore `json:"scores"`
	Summaries map[string]evaluation.Summary `json:"summaries"`
	Duration  time.Duration                 `json:"duration_ns"`
}

// CompareRequest 单个句对评测请求
type CompareRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
	// 为空时使用全部已注册指标
	Metrics []string        `json:"metrics,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// =============================================================================
// 指标与报告
// =============================================================================

// MetricInfo 已注册指标的描述
type MetricInfo struct {
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ReportList 报告列表
type ReportList struct {
	Reports []*store.Report `json:"reports"`
}
